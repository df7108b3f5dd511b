// Package ops implements the six operation handlers: @import,
// @shell, @llm, @run, @return, @goto. Each satisfies interp.Handler; none
// of them is imported by pkg/interp, avoiding the import cycle a direct
// dependency would create (interp defines Handler/Engine, ops implements
// against them, callers wire the two together — the same separation gert
// draws between pkg/kernel/engine and its concrete step providers in
// pkg/providers).
package ops

import (
	"strings"

	"github.com/fractalic-ai/fractalic/pkg/parser"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

// cloneFragment deep-copies nodes with fresh keys cleared so the tree they
// are spliced into mints new identities for them, matching @import's
// "select the referenced fragment (fresh keys)" behavior. Heading ids are
// kept: they were already derived from the heading's own text at parse
// time (pkg/parser's assignHeadingIDs), and nothing re-derives them once a
// fragment is spliced elsewhere — dropping them here would make imported
// or returned headings permanently unaddressable by id.
func cloneFragment(nodes []*tree.Node) []*tree.Node {
	out := make([]*tree.Node, len(nodes))
	for i, n := range nodes {
		cp := n.Clone()
		cp.Key = ""
		if cp.Kind != tree.KindHeading {
			cp.ID = ""
		}
		out[i] = cp
	}
	return out
}

// wrapWithHeader builds a synthesized heading node followed by one content
// node holding body, at the same level as the operation node producing
// them (an operation's Level is its enclosing heading's level, so this
// keeps e.g. "# OS Shell Tool response block" a single "#" alongside a
// top-level "# A" caller, matching the canonical response-block shape).
// Used by @shell and @llm's response wrapping.
func wrapWithHeader(headerText string, parentLevel int, body string) []*tree.Node {
	level := parentLevel
	if level < 1 {
		level = 1
	}
	heading := &tree.Node{
		Kind:  tree.KindHeading,
		Level: level,
		ID:    parser.HeadingSlug(headerText),
		Text:  strings.Repeat("#", level) + " " + headerText,
		Role:  tree.RoleAssistant,
	}
	content := &tree.Node{
		Kind:  tree.KindContent,
		Level: level,
		Text:  body,
		Role:  tree.RoleAssistant,
	}
	return []*tree.Node{heading, content}
}

// buildResponseFragment wraps an @llm/@shell-style textual result under a
// synthesized header, or as a bare content node when use-header:"none".
func buildResponseFragment(node *tree.Node, text string) []*tree.Node {
	if headerSuppressed(node) {
		return plainContentFragment(text)
	}
	header := headerTextOr(node, defaultLLMHeader)
	return wrapWithHeader(header, node.Level, text)
}

// plainContentFragment wraps body as a single content-only node, used when
// use-header:"none" suppresses the synthesized heading.
func plainContentFragment(body string) []*tree.Node {
	return []*tree.Node{{
		Kind: tree.KindContent,
		Text: body,
		Role: tree.RoleAssistant,
	}}
}

// headerSuppressed reports whether use-header requests no wrapping header
// at all ("none", case-insensitive).
func headerSuppressed(node *tree.Node) bool {
	v, _ := node.Params["use-header"].(string)
	return strings.EqualFold(v, "none")
}

// headerTextOr returns the "use-header" param's value if it is a non-empty,
// non-"none" string, else def.
func headerTextOr(node *tree.Node, def string) string {
	v, _ := node.Params["use-header"].(string)
	if v == "" || strings.EqualFold(v, "none") {
		return def
	}
	return v
}
