// Package main provides the entry point for the vectorlited CLI.
package main

import (
	"os"

	"github.com/vectorlite/vectorlite/cmd/vectorlited/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
