package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fractalic-ai/fractalic/pkg/config"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the tool registry",
}

var toolsListJSON bool
var toolsListDir string

func init() {
	toolsListCmd.Flags().BoolVar(&toolsListJSON, "json", false, "print each tool's schema as JSON")
	toolsListCmd.Flags().StringVar(&toolsListDir, "dir", ".", "directory the registry resolves manifests/scripts relative to")
	toolsCmd.AddCommand(toolsListCmd)
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tool the registry can discover",
	RunE:  runToolsList,
}

func runToolsList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Discover(cfgFile)
	if err != nil {
		return err
	}

	reg, err := buildRegistry(context.Background(), cfg, toolsListDir)
	if err != nil {
		return err
	}
	defer reg.Close()

	names := reg.List()
	sort.Strings(names)

	for _, name := range names {
		e, _ := reg.Get(name)
		if toolsListJSON {
			data, err := json.MarshalIndent(map[string]any{
				"name":        e.Name,
				"description": e.Description,
				"schema":      e.Schema,
			}, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", e.Name, e.Description)
	}
	return nil
}
