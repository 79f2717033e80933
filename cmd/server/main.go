package main

import (
	"os"

	"github.com/mmynk/nekolators/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
