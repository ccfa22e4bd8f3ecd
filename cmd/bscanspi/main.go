package main

import "github.com/OpenTraceLab/bscanspi/cmd/bscanspi/cmd"

func main() {
	cmd.Execute()
}
