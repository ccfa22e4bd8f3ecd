package host

import (
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// SetLogger replaces the package logger. Passing nil restores a default
// logger.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = logrus.New()
	}
	logger = l
}
