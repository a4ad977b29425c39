package main

import (
	"os"

	"github.com/ariefcatur/go-skip-selector/cmd/skipctl/commands"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
