package profile

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// File is a parsed profile file.
type File struct {
	Bridges []*BridgeDecl `@@*`
}

// BridgeDecl is one bridge "name" { ... } block.
type BridgeDecl struct {
	Pos lexer.Position

	Name     string     `"bridge" @String "{"`
	Settings []*Setting `@@* "}"`
}

// Setting is a key = value line.
type Setting struct {
	Pos lexer.Position

	Key   string `@Ident "="`
	Value *Value `@@`
}

// Value is a number, a quoted string or a bare word.
type Value struct {
	Number *string `  @Number`
	String *string `| @String`
	Ident  *string `| @Ident`
}

func (v *Value) text() string {
	switch {
	case v.Number != nil:
		return *v.Number
	case v.String != nil:
		return *v.String
	case v.Ident != nil:
		return *v.Ident
	}
	return ""
}

var profileLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F_]+|0[bB][01_]+|[0-9][0-9_]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_-]*`},
	{Name: "Punct", Pattern: `[{}=]`},
})
