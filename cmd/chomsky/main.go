package main

import (
	"os"

	"github.com/msto63/chomsky/cmd/chomsky/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
