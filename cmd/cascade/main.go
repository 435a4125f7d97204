package main

import (
	"os"

	"github.com/moolen/cascade/cmd/cascade/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
