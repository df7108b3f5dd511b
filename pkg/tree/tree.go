package tree

import "github.com/fractalic-ai/fractalic/pkg/ferr"

// MergeMode governs how a fragment joins the tree at a target.
type MergeMode string

const (
	ModeAppend  MergeMode = "append"
	ModePrepend MergeMode = "prepend"
	ModeReplace MergeMode = "replace"
)

// Tree is an ordered list of nodes with implicit hierarchy by heading
// level. It owns the key generator for nodes created during its lifetime.
type Tree struct {
	head *Node
	tail *Node
	keys *KeyGen
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{keys: NewKeyGen()}
}

// FromNodes builds a tree by linking an ordered slice of nodes, assigning
// fresh keys to any node whose Key is empty.
func FromNodes(nodes []*Node) *Tree {
	t := New()
	t.appendNodes(nodes)
	return t
}

func (t *Tree) appendNodes(nodes []*Node) {
	for _, n := range nodes {
		if n.Key == "" {
			n.Key = t.keys.Next()
		}
		n.Prev = t.tail
		n.Next = nil
		if t.tail != nil {
			t.tail.Next = n
		} else {
			t.head = n
		}
		t.tail = n
	}
}

// Head returns the first node, or nil if the tree is empty.
func (t *Tree) Head() *Node { return t.head }

// Tail returns the last node, or nil if the tree is empty.
func (t *Tree) Tail() *Node { return t.tail }

// KeyGen exposes the tree's key generator so parsers/handlers minting new
// nodes for this tree can issue consistent keys.
func (t *Tree) KeyGen() *KeyGen { return t.keys }

// Iter returns every node from head to tail, in document order.
func (t *Tree) Iter() []*Node {
	var out []*Node
	for n := t.head; n != nil; n = n.Next {
		out = append(out, n)
	}
	return out
}

// FindByIDOrKey does a linear search for a node whose ID or Key equals
// query, matching either id or key.
func (t *Tree) FindByIDOrKey(query string) *Node {
	for n := t.head; n != nil; n = n.Next {
		if n.ID == query || n.Key == query {
			return n
		}
	}
	return nil
}

// ChildrenUnder returns the successors of node whose Level is strictly
// greater than node.Level, stopping at the first node whose Level is
// less than or equal.
func ChildrenUnder(node *Node) []*Node {
	if node == nil {
		return nil
	}
	var out []*Node
	for n := node.Next; n != nil; n = n.Next {
		if n.Level <= node.Level {
			break
		}
		out = append(out, n)
	}
	return out
}

// RegionEnd returns the last node in node's region: node itself if it has
// no children, else the last of ChildrenUnder(node).
func RegionEnd(node *Node) *Node {
	children := ChildrenUnder(node)
	if len(children) == 0 {
		return node
	}
	return children[len(children)-1]
}

// Seed populates an empty tree with fragment, assigning fresh keys to any
// node lacking one. It is an error to call Seed on a non-empty tree; use
// Insert instead. This exists for callers building an input fragment ahead
// of a tree that may have parsed to zero nodes (an empty @run target file).
func (t *Tree) Seed(fragment []*Node) error {
	if t.head != nil {
		return ferr.New(ferr.KindInternal, "seed: tree already has nodes")
	}
	t.appendNodes(fragment)
	return nil
}

// Insert splices fragment into the tree relative to pos under mode.
// Nodes in fragment without a Key are assigned one from this tree's
// generator. Returns the spliced-in fragment nodes in order.
func (t *Tree) Insert(pos *Node, fragment []*Node, mode MergeMode) ([]*Node, error) {
	if pos == nil {
		return nil, ferr.New(ferr.KindInternal, "insert: nil position")
	}
	for _, n := range fragment {
		if n.Key == "" {
			n.Key = t.keys.Next()
		}
	}
	linkFragment(fragment)

	switch mode {
	case ModeAppend:
		after := RegionEnd(pos)
		t.spliceAfter(after, fragment)
	case ModePrepend:
		t.spliceBefore(pos, fragment)
	case ModeReplace:
		end := RegionEnd(pos)
		before := pos.Prev
		after := end.Next
		t.unlink(pos, end)
		if len(fragment) == 0 {
			return fragment, nil
		}
		first, last := fragment[0], fragment[len(fragment)-1]
		if before != nil {
			before.Next = first
			first.Prev = before
		} else {
			t.head = first
		}
		if after != nil {
			after.Prev = last
			last.Next = after
		} else {
			t.tail = last
		}
	default:
		return nil, ferr.New(ferr.KindInternal, "insert: unknown merge mode %q", mode)
	}
	return fragment, nil
}

// linkFragment wires Prev/Next between consecutive nodes of fragment,
// leaving the fragment's own head/tail Prev/Next untouched for the caller
// to attach.
func linkFragment(fragment []*Node) {
	for i := 0; i < len(fragment); i++ {
		if i > 0 {
			fragment[i].Prev = fragment[i-1]
		}
		if i < len(fragment)-1 {
			fragment[i].Next = fragment[i+1]
		}
	}
}

func (t *Tree) spliceAfter(after *Node, fragment []*Node) {
	if len(fragment) == 0 {
		return
	}
	first, last := fragment[0], fragment[len(fragment)-1]
	next := after.Next
	after.Next = first
	first.Prev = after
	last.Next = next
	if next != nil {
		next.Prev = last
	} else {
		t.tail = last
	}
}

func (t *Tree) spliceBefore(before *Node, fragment []*Node) {
	if len(fragment) == 0 {
		return
	}
	first, last := fragment[0], fragment[len(fragment)-1]
	prev := before.Prev
	before.Prev = last
	last.Next = before
	first.Prev = prev
	if prev != nil {
		prev.Next = first
	} else {
		t.head = first
	}
}

// unlink removes the run of nodes [from, to] (inclusive) from the tree.
// from and to must be nodes already in the tree with from at or before to.
func (t *Tree) unlink(from, to *Node) {
	before := from.Prev
	after := to.Next
	if before != nil {
		before.Next = after
	} else {
		t.head = after
	}
	if after != nil {
		after.Prev = before
	} else {
		t.tail = before
	}
	from.Prev = nil
	to.Next = nil
}

// CheckInvariants validates key uniqueness and link integrity. Intended
// for tests and debug assertions.
func (t *Tree) CheckInvariants() error {
	seen := make(map[string]bool)
	var prev *Node
	n := t.head
	count := 0
	for n != nil {
		if seen[n.Key] {
			return ferr.New(ferr.KindInternal, "duplicate key %q", n.Key)
		}
		seen[n.Key] = true
		if n.Prev != prev {
			return ferr.New(ferr.KindInternal, "broken prev link at %q", n.Key)
		}
		prev = n
		n = n.Next
		count++
		if count > 10_000_000 {
			return ferr.New(ferr.KindInternal, "cycle detected")
		}
	}
	if prev != t.tail {
		return ferr.New(ferr.KindInternal, "tail mismatch")
	}
	return nil
}
