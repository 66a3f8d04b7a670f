package main

import (
	"os"

	"github.com/terra-clan/domain-lists/cmd/domain-lists/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
