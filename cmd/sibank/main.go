package main

import (
	"os"

	"sibank/cmd/sibank/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
