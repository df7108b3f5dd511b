package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fractalic-ai/fractalic/pkg/recorder"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect a recorded call tree",
}

func init() {
	traceCmd.AddCommand(traceShowCmd)
}

var traceShowCmd = &cobra.Command{
	Use:   "show <doc.trc>",
	Short: "Pretty-print a .trc call tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceShow,
}

func runTraceShow(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var events []recorder.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for _, evt := range events {
		line := fmt.Sprintf("%s  %-12s op=%s", evt.Timestamp.Format("15:04:05.000"), evt.Type, evt.OpKey)
		if evt.OpName != "" {
			line += fmt.Sprintf(" name=%s", evt.OpName)
		}
		if evt.ToKey != "" {
			line += fmt.Sprintf(" -> %s", evt.ToKey)
		}
		if evt.Error != "" {
			line += fmt.Sprintf(" error=%q", evt.Error)
		}
		if evt.ToolName != "" {
			line += fmt.Sprintf(" tool=%s args=%s result=%s", evt.ToolName, evt.ToolArgs, evt.ToolResult)
		}
		cmd.Println(line)
	}
	return nil
}
