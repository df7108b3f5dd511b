package address

import (
	"testing"

	"github.com/fractalic-ai/fractalic/pkg/parser"
)

func TestResolveSimpleAndNested(t *testing.T) {
	doc := "# a\n## b\nbody\n# c\n"
	tr, err := parser.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := Resolve(tr, ParsePath("a"))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].ID != "a" {
		t.Fatalf("resolve a: %+v", nodes)
	}

	nodes, err = Resolve(tr, ParsePath("a/b"))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].ID != "b" {
		t.Fatalf("resolve a/b: %+v", nodes)
	}
}

func TestResolveWildcard(t *testing.T) {
	doc := "# a\n## b\nbody\nmore\n# c\n"
	tr, err := parser.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := Resolve(tr, ParsePath("a/*"))
	if err != nil {
		t.Fatal(err)
	}
	// a itself + its descendants (b heading + content), not sibling c.
	if len(nodes) != 3 {
		t.Fatalf("wildcard region: %+v", nodes)
	}
}

func TestResolveNotFound(t *testing.T) {
	doc := "# a\n"
	tr, err := parser.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Resolve(tr, ParsePath("missing"))
	if err == nil {
		t.Fatal("expected BlockNotFound")
	}
}

func TestResolveIdempotent(t *testing.T) {
	doc := "# a\n## b\nbody\n"
	tr, err := parser.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	n1, err := Resolve(tr, ParsePath("a/b"))
	if err != nil {
		t.Fatal(err)
	}
	n2, err := Resolve(tr, ParsePath("a/b"))
	if err != nil {
		t.Fatal(err)
	}
	if len(n1) != len(n2) || n1[0].Key != n2[0].Key {
		t.Fatalf("resolution not idempotent: %+v vs %+v", n1, n2)
	}
}
