// Package opctx implements the context-construction rules shared by
// @llm and @run — context construction is not simply "everything before".
package opctx

import (
	"strings"

	"github.com/fractalic-ai/fractalic/pkg/address"
	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

// Turn is one unit of constructed context, carrying the role it should
// play if replayed as chat history (the "context" render variant).
type Turn struct {
	Role tree.Role
	Text string
}

// BlockPaths normalizes a "block" param value (string or []any of
// strings, per the block-path array grammar) into a path list.
func BlockPaths(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ResolveBlocks resolves block path(s) and widens every match to its full
// descendant region ("content under the resolved path(s)"). Exported
// so @return and @import can reuse the same widening rule @llm's context
// construction uses, rather than re-deriving it.
func ResolveBlocks(t *tree.Tree, raw any) ([]*tree.Node, error) {
	return resolveBlockNodes(t, raw)
}

func resolveBlockNodes(t *tree.Tree, raw any) ([]*tree.Node, error) {
	paths := BlockPaths(raw)
	if len(paths) == 0 {
		return nil, nil
	}
	var out []*tree.Node
	for _, p := range paths {
		parsed := address.ParsePath(p)
		matches, err := address.Resolve(t, parsed)
		if err != nil {
			return nil, err
		}
		if parsed.Wildcard {
			out = append(out, matches...)
			continue
		}
		for _, m := range matches {
			out = append(out, m)
			out = append(out, tree.ChildrenUnder(m)...)
		}
	}
	return out, nil
}

// nodesToTurns converts heading/content nodes into chat turns, dropping
// operation nodes (they carry no conversational text) and preserving
// each node's recorded role — role semantics carry across @llm/@run.
func nodesToTurns(nodes []*tree.Node) []Turn {
	var out []Turn
	for _, n := range nodes {
		if n.Kind == tree.KindOperation {
			continue
		}
		out = append(out, Turn{Role: n.Role, Text: n.Text})
	}
	return out
}

// precedingNodes returns every node strictly before opNode in document
// order: all nodes preceding this operation in document order.
func precedingNodes(t *tree.Tree, opNode *tree.Node) []*tree.Node {
	var out []*tree.Node
	for n := t.Head(); n != nil && n != opNode; n = n.Next {
		out = append(out, n)
	}
	return out
}

// Build implements the three normative context-construction cases for @llm/@run:
//  1. block present, prompt absent  -> resolved block(s), roles preserved.
//  2. prompt present, block absent  -> everything preceding opNode, then
//     a final user turn holding prompt.
//  3. both present                  -> resolved block(s) then a final
//     user turn holding prompt.
//
// At least one of block/prompt must be present; opschema enforces that at
// parse time, so Build treats "neither present" as an internal error.
func Build(t *tree.Tree, opNode *tree.Node, blockRaw any, prompt string) ([]Turn, error) {
	hasBlock := len(BlockPaths(blockRaw)) > 0
	hasPrompt := prompt != ""

	switch {
	case hasBlock && !hasPrompt:
		nodes, err := resolveBlockNodes(t, blockRaw)
		if err != nil {
			return nil, err
		}
		return nodesToTurns(nodes), nil

	case hasPrompt && !hasBlock:
		nodes := precedingNodes(t, opNode)
		turns := nodesToTurns(nodes)
		turns = append(turns, Turn{Role: tree.RoleUser, Text: prompt})
		return turns, nil

	case hasBlock && hasPrompt:
		nodes, err := resolveBlockNodes(t, blockRaw)
		if err != nil {
			return nil, err
		}
		turns := nodesToTurns(nodes)
		turns = append(turns, Turn{Role: tree.RoleUser, Text: prompt})
		return turns, nil

	default:
		return nil, ferr.New(ferr.KindInternal, "neither block nor prompt supplied")
	}
}

// Markdown flattens turns into plain Markdown text (for @run's input
// fragment, which is Markdown, not chat turns).
func Markdown(turns []Turn) string {
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = t.Text
	}
	return strings.Join(parts, "\n\n")
}
