package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fractalic-ai/fractalic/pkg/config"
	"github.com/fractalic-ai/fractalic/pkg/parser"
)

var validatePrintConfigSchema bool

func init() {
	validateCmd.Flags().BoolVar(&validatePrintConfigSchema, "print-config-schema", false, "print the JSON Schema for fractalic.yaml and exit")
}

var validateCmd = &cobra.Command{
	Use:   "validate <doc.md>",
	Short: "Parse and validate a document's operation parameters without executing it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validatePrintConfigSchema {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		cmd.Println(string(schema))
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("validate requires exactly one document argument, or --print-config-schema")
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if _, err := parser.Parse(data); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, stylize(failureStyle, os.Stderr, err.Error()))
		os.Exit(1)
	}
	cmd.Printf("%s: %s\n", path, stylize(successStyle, os.Stdout, "OK"))
	return nil
}
