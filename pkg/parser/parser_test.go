package parser

import (
	"strings"
	"testing"

	"github.com/fractalic-ai/fractalic/pkg/tree"
)

func TestParseHeadingsAndContent(t *testing.T) {
	doc := "# A\nhello\n\n## B {id=explicit-b}\nworld\n"
	tr, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	nodes := tr.Iter()
	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d: %+v", len(nodes), nodes)
	}
	if nodes[0].ID != "a" || nodes[0].Level != 1 {
		t.Fatalf("heading a: %+v", nodes[0])
	}
	if nodes[2].ID != "explicit-b" || nodes[2].Level != 2 {
		t.Fatalf("heading b: %+v", nodes[2])
	}
	if nodes[1].Text != "hello" || nodes[3].Text != "world" {
		t.Fatalf("content mismatch: %q %q", nodes[1].Text, nodes[3].Text)
	}
}

func TestParseOperationBlock(t *testing.T) {
	doc := "# A\n@shell\nprompt: echo hi\nuse-header: \"none\"\n\nafter\n"
	tr, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	nodes := tr.Iter()
	var op *tree.Node
	for _, n := range nodes {
		if n.Kind == tree.KindOperation {
			op = n
		}
	}
	if op == nil {
		t.Fatal("expected an operation node")
	}
	if op.OpName != "shell" {
		t.Fatalf("op name = %q", op.OpName)
	}
	if op.Params["prompt"] != "echo hi" {
		t.Fatalf("prompt param = %v", op.Params["prompt"])
	}
	if op.ID != "op-"+op.Key {
		t.Fatalf("op id = %q, want op-%s", op.ID, op.Key)
	}
}

func TestParseOperationBlockDecodesIntegerScalarAsInt(t *testing.T) {
	// yaml.Unmarshal into map[string]any decodes a whole-number scalar as
	// Go int, not float64 — callers reading numeric params must accept
	// both underlying types.
	doc := "# A\n@llm\nprompt: hi\ntools-turns-max: 2\ntemperature: 1\n"
	tr, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	var op *tree.Node
	for _, n := range tr.Iter() {
		if n.Kind == tree.KindOperation {
			op = n
		}
	}
	if op == nil {
		t.Fatal("expected an operation node")
	}
	if _, ok := op.Params["tools-turns-max"].(int); !ok {
		t.Fatalf("expected tools-turns-max to decode as int, got %T", op.Params["tools-turns-max"])
	}
	if _, ok := op.Params["temperature"].(int); !ok {
		t.Fatalf("expected temperature to decode as int, got %T", op.Params["temperature"])
	}
}

func TestParseUnknownOperation(t *testing.T) {
	doc := "@unknown\nfoo: 1\n"
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected parse error for unknown operation")
	}
	if !strings.Contains(err.Error(), "ParseError") {
		t.Fatalf("expected ParseError kind, got %v", err)
	}
}

func TestParseInvalidYAMLBody(t *testing.T) {
	doc := "@shell\nprompt: [unterminated\n\n"
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}

func TestHeadingIDCollision(t *testing.T) {
	doc := "# Intro\ntext\n# Intro\nmore\n"
	tr, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, n := range tr.Iter() {
		if n.Kind == tree.KindHeading {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) != 2 || ids[0] != "intro" || ids[1] != "intro-2" {
		t.Fatalf("collision resolution failed: %v", ids)
	}
}

func TestHeadingIDScopedByParent(t *testing.T) {
	doc := "# Parent1\n## Child\nx\n# Parent2\n## Child\ny\n"
	tr, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, n := range tr.Iter() {
		if n.Kind == tree.KindHeading {
			ids = append(ids, n.ID)
		}
	}
	// Children under distinct parents may reuse "child" without collision.
	if ids[1] != "child" || ids[3] != "child" {
		t.Fatalf("scoped ids: %v", ids)
	}
}
