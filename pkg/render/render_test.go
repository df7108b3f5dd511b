package render

import (
	"strings"
	"testing"

	"github.com/fractalic-ai/fractalic/pkg/parser"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

func TestRoundTrip(t *testing.T) {
	doc := "# A\nhello world\n\n@shell\nprompt: echo hi\n\n# B {id=b}\nmore text\n"
	tr, err := parser.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Render(tr)
	if err != nil {
		t.Fatal(err)
	}
	tr2, err := parser.Parse([]byte(out))
	if err != nil {
		t.Fatalf("re-parse failed: %v\n---\n%s", err, out)
	}

	n1, n2 := tr.Iter(), tr2.Iter()
	if len(n1) != len(n2) {
		t.Fatalf("node count differs: %d vs %d\n%s", len(n1), len(n2), out)
	}
	for i := range n1 {
		if n1[i].Kind != n2[i].Kind {
			t.Fatalf("node %d kind differs: %v vs %v", i, n1[i].Kind, n2[i].Kind)
		}
		if n1[i].Kind == tree.KindOperation {
			if n1[i].OpName != n2[i].OpName {
				t.Fatalf("op name differs at %d", i)
			}
			if n1[i].Params["prompt"] != n2[i].Params["prompt"] {
				t.Fatalf("op params differ at %d: %v vs %v", i, n1[i].Params, n2[i].Params)
			}
		} else {
			if n1[i].Text != n2[i].Text {
				t.Fatalf("text differs at %d: %q vs %q", i, n1[i].Text, n2[i].Text)
			}
		}
	}
}

func TestRenderContextSkipsOperationsAndTagsRoles(t *testing.T) {
	doc := "# A\nhello world\n\n@shell\nprompt: echo hi\n\n# B {id=b}\nmore text\n"
	tr, err := parser.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range tr.Iter() {
		if n.Kind != tree.KindOperation {
			n.Role = tree.RoleUser
		}
	}

	out := RenderContext(tr)
	if strings.Contains(out, "@shell") {
		t.Fatalf("expected operation nodes to be excluded from the context variant, got:\n%s", out)
	}
	if !strings.Contains(out, "<<<user>>>") {
		t.Fatalf("expected role markers in the context variant, got:\n%s", out)
	}
	if !strings.Contains(out, "hello world") || !strings.Contains(out, "more text") {
		t.Fatalf("expected heading/content text preserved, got:\n%s", out)
	}
}
