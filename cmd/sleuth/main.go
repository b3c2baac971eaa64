package main

import (
	"os"

	"github.com/stridelabs/sleuth/cmd/sleuth/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
