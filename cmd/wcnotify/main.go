package main

import (
	"os"

	"wcnotify/cmd/wcnotify/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
