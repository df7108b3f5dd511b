// Package diagram renders a document tree as a visual diagram, in either
// Mermaid flowchart or ASCII box form. Adapted from gert's
// pkg/diagram (which renders its runbook step/branch/outcome DSL); this
// version walks a flat tree.Tree instead, since a Fractalic document has
// no branch/outcome shapes — heading level and operation kind carry the
// structure instead.
package diagram

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/fractalic-ai/fractalic/pkg/tree"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// Generate produces a diagram string from a parsed document tree.
func Generate(t *tree.Tree, format Format) (string, error) {
	if t == nil {
		return "", fmt.Errorf("nil tree")
	}
	switch format {
	case FormatMermaid:
		return generateMermaid(t), nil
	case FormatASCII:
		return generateASCII(t), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// --- Mermaid flowchart ---

func generateMermaid(t *tree.Tree) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	nodes := t.Iter()
	if len(nodes) == 0 {
		return b.String()
	}

	b.WriteString("    START([Start]) --> " + safeID(nodes[0].Key) + "\n")
	for i, n := range nodes {
		b.WriteString("    " + nodeDefinition(n) + "\n")
		if i < len(nodes)-1 {
			b.WriteString(fmt.Sprintf("    %s --> %s\n", safeID(n.Key), safeID(nodes[i+1].Key)))
		}
		if style := nodeStyle(n); style != "" {
			b.WriteString(fmt.Sprintf("    style %s %s\n", safeID(n.Key), style))
		}
	}
	return b.String()
}

func nodeDefinition(n *tree.Node) string {
	id := safeID(n.Key)
	label := nodeLabel(n)
	switch n.Kind {
	case tree.KindOperation:
		return fmt.Sprintf(`%s{{"%s"}}`, id, escMermaid(label))
	case tree.KindHeading:
		return fmt.Sprintf(`%s["%s"]`, id, escMermaid(label))
	default:
		return fmt.Sprintf(`%s("%s")`, id, escMermaid(label))
	}
}

func nodeStyle(n *tree.Node) string {
	switch n.Kind {
	case tree.KindOperation:
		return "fill:#1a3a4a,stroke:#0af,color:#fff"
	case tree.KindHeading:
		return "fill:#333,stroke:#999,color:#fff"
	default:
		return ""
	}
}

func nodeLabel(n *tree.Node) string {
	icon := nodeIcon(n)
	switch n.Kind {
	case tree.KindOperation:
		return fmt.Sprintf("%s @%s", icon, n.OpName)
	case tree.KindHeading:
		return fmt.Sprintf("%s %s", icon, truncate(n.Text, 40))
	default:
		return fmt.Sprintf("%s %s", icon, truncate(oneLine(n.Text), 30))
	}
}

func nodeIcon(n *tree.Node) string {
	switch n.Kind {
	case tree.KindOperation:
		return "⚙"
	case tree.KindHeading:
		return "＃"
	default:
		return "▤"
	}
}

// --- ASCII ---

func generateASCII(t *tree.Tree) string {
	var b strings.Builder

	nodes := t.Iter()
	if len(nodes) == 0 {
		b.WriteString("(empty document)\n")
		return b.String()
	}

	const indentUnit = 2
	boxWidth := computeUniformBoxWidth(nodes)

	for i, n := range nodes {
		indent := indentUnit * headingDepth(n)
		writeASCIINode(&b, n, indent, boxWidth)
		if i < len(nodes)-1 {
			connCol := indent + 1 + boxWidth/2
			b.WriteString(strings.Repeat(" ", connCol) + "│\n")
		}
	}
	return b.String()
}

// headingDepth approximates nesting depth from the node's own heading
// level, or the nearest preceding heading's level for non-heading nodes.
func headingDepth(n *tree.Node) int {
	cur := n
	for cur != nil {
		if cur.Kind == tree.KindHeading {
			if cur.Level <= 1 {
				return 0
			}
			return cur.Level - 1
		}
		cur = cur.Prev
	}
	return 0
}

func computeUniformBoxWidth(nodes []*tree.Node) int {
	minWidth := 24
	w := minWidth
	for _, n := range nodes {
		if cw := runewidth.StringWidth(nodeLabel(n)) + 2; cw > w {
			w = cw
		}
	}
	return w
}

func writeASCIINode(b *strings.Builder, n *tree.Node, indent, boxWidth int) {
	content := " " + nodeLabel(n) + " "
	contentWidth := runewidth.StringWidth(content)

	pad := strings.Repeat(" ", indent)
	topBot := strings.Repeat("─", boxWidth)
	mid := boxWidth / 2

	b.WriteString(pad + "┌" + topBot + "┐\n")
	b.WriteString(pad + "│" + content + strings.Repeat(" ", max(0, boxWidth-contentWidth)) + "│\n")
	b.WriteString(pad + "└" + strings.Repeat("─", mid) + "┬" + strings.Repeat("─", boxWidth-mid-1) + "┘\n")
}

// --- string helpers ---

func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if runewidth.StringWidth(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
