package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fractalic-ai/fractalic/pkg/diagram"
	"github.com/fractalic-ai/fractalic/pkg/parser"
	"github.com/fractalic-ai/fractalic/pkg/render"
)

var (
	renderDiagram string
	renderContext bool
)

func init() {
	renderCmd.Flags().StringVar(&renderDiagram, "diagram", "", "print a tree diagram instead of Markdown (mermaid|ascii)")
	renderCmd.Flags().BoolVar(&renderContext, "context", false, "print the chat-replay context variant (role-tagged, operations stripped) instead of Markdown")
}

var renderCmd = &cobra.Command{
	Use:   "render <doc.md>",
	Short: "Parse a document and render it back to Markdown, for round-trip inspection",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	tr, err := parser.Parse(data)
	if err != nil {
		return err
	}

	if renderDiagram != "" {
		out, err := diagram.Generate(tr, diagram.Format(renderDiagram))
		if err != nil {
			return err
		}
		cmd.Print(out)
		return nil
	}

	if renderContext {
		cmd.Print(render.RenderContext(tr))
		return nil
	}

	out, err := render.Render(tr)
	if err != nil {
		return err
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		if renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0)); err == nil {
			if pretty, err := renderer.Render(out); err == nil {
				cmd.Print(pretty)
				return nil
			}
		}
	}
	cmd.Print(out)
	return nil
}
