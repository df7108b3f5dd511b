// Package address resolves block paths against a tree.
package address

import (
	"strings"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

// Path is a single block-path expression, already split on '/'. The last
// segment may be "*", widening the match to the node's entire descendant
// region.
type Path struct {
	Segments []string
	Wildcard bool
}

// ParsePath splits a raw path string like "a/b/*" into a Path.
func ParsePath(raw string) Path {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, "/")
	wildcard := false
	if len(parts) > 0 && parts[len(parts)-1] == "*" {
		wildcard = true
		parts = parts[:len(parts)-1]
	}
	return Path{Segments: parts, Wildcard: wildcard}
}

// Resolve resolves a single path expression against t, returning the
// matched nodes in order. A bare segment matches by id first, then key.
// "a/b" finds "a" anywhere, then "b" among a's direct children (the
// nodes in a's region exactly one level below a).
// Trailing "/*" widens the final match to its full descendant region.
// Unresolvable ids return (nil, BlockNotFound); callers for read-only
// operations should treat that as an empty result instead of a hard error.
func Resolve(t *tree.Tree, p Path) ([]*tree.Node, error) {
	if len(p.Segments) == 0 || (len(p.Segments) == 1 && p.Segments[0] == "") {
		return nil, ferr.New(ferr.KindParse, "empty block path")
	}

	var current *tree.Node
	pool := t.Iter()
	for i, seg := range p.Segments {
		var found *tree.Node
		if i == 0 {
			found = findAmong(pool, seg)
		} else {
			var children []*tree.Node
			for _, c := range tree.ChildrenUnder(current) {
				if c.Level == current.Level+1 {
					children = append(children, c)
				}
			}
			found = findAmong(children, seg)
		}
		if found == nil {
			return nil, ferr.New(ferr.KindBlockNotFnd, "block %q not found", strings.Join(p.Segments[:i+1], "/"))
		}
		current = found
	}

	if p.Wildcard {
		region := append([]*tree.Node{current}, tree.ChildrenUnder(current)...)
		return region, nil
	}
	return []*tree.Node{current}, nil
}

// ResolveMany resolves an ordered list of paths and concatenates their
// results, preserving duplicates.
func ResolveMany(t *tree.Tree, paths []Path) ([]*tree.Node, error) {
	var out []*tree.Node
	for _, p := range paths {
		nodes, err := Resolve(t, p)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

// ResolveRequired is like Resolve but returns BlockNotFound as a hard
// error even for operations that must act on a node — Resolve already
// does this; ResolveRequired exists to make call sites self-documenting.
func ResolveRequired(t *tree.Tree, raw string) ([]*tree.Node, error) {
	return Resolve(t, ParsePath(raw))
}

func findAmong(nodes []*tree.Node, query string) *tree.Node {
	for _, n := range nodes {
		if n.ID == query {
			return n
		}
	}
	for _, n := range nodes {
		if n.Key == query {
			return n
		}
	}
	return nil
}
