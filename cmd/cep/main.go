package main

import (
	"os"

	"github.com/dukerupert/buscacep/cmd/cep/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
