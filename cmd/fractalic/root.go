package main

import "github.com/spf13/cobra"

var (
	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "fractalic",
	Short: "Execute Markdown documents as agentic workflows",
	Long:  "fractalic runs structured Markdown documents whose YAML-bodied operation blocks (@import, @llm, @shell, @run, @return, @goto) transform a live document tree.",
}

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to fractalic.yaml (defaults to the standard discovery order)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fractalic version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("fractalic %s (%s)\n", version, commit)
		return nil
	},
}
