package main

import (
	"os"
	_ "time/tzdata"

	"nursery-platform/cmd/seasonctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
