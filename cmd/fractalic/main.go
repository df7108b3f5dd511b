// Command fractalic is the headless execution CLI for the document
// execution engine. Grounded on gert's cmd/gert (a
// cobra command tree with .env loading ahead of Execute, one file per
// verb).
package main

import (
	"os"

	"github.com/fractalic-ai/fractalic/pkg/config"
)

func main() {
	config.LoadDotEnv(".")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
