// Package render serializes a tree.Tree back to Markdown.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fractalic-ai/fractalic/pkg/tree"
	"gopkg.in/yaml.v3"
)

// Render serializes t to Markdown. Heading and content nodes are emitted
// verbatim from Text; operation nodes are emitted as "@name" followed by
// canonicalized YAML of Params.
func Render(t *tree.Tree) (string, error) {
	var b strings.Builder
	nodes := t.Iter()
	for i, n := range nodes {
		switch n.Kind {
		case tree.KindHeading, tree.KindContent:
			b.WriteString(n.Text)
			b.WriteString("\n")
		case tree.KindOperation:
			b.WriteString("@")
			b.WriteString(n.OpName)
			b.WriteString("\n")
			body, err := canonicalYAML(n.Params)
			if err != nil {
				return "", fmt.Errorf("render operation %s: %w", n.Key, err)
			}
			b.WriteString(body)
		}
		if i < len(nodes)-1 {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// canonicalYAML emits params with sorted keys so that repeated renders of
// semantically equal params produce byte-identical output (round-trip
// property).
func canonicalYAML(params map[string]any) (string, error) {
	if len(params) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var doc yaml.Node
	doc.Kind = yaml.MappingNode
	for _, k := range keys {
		var keyNode, valNode yaml.Node
		if err := keyNode.Encode(k); err != nil {
			return "", err
		}
		if err := valNode.Encode(params[k]); err != nil {
			return "", err
		}
		doc.Content = append(doc.Content, &keyNode, &valNode)
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RenderContext produces a "context" variant that interleaves role markers
// so the tree can later be replayed as chat history. Operation
// nodes are skipped: only heading/content nodes carry role.
func RenderContext(t *tree.Tree) string {
	var b strings.Builder
	for _, n := range t.Iter() {
		if n.Kind == tree.KindOperation {
			continue
		}
		b.WriteString(fmt.Sprintf("<<<%s>>>\n", n.Role))
		b.WriteString(n.Text)
		b.WriteString("\n")
	}
	return b.String()
}
