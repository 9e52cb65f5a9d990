package main

import (
	"os"

	"recipe-synthesizer/cmd/kbctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
