package diagram

import (
	"strings"
	"testing"

	"github.com/fractalic-ai/fractalic/pkg/tree"
)

func sampleTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New()
	if err := tr.Seed([]*tree.Node{
		{Kind: tree.KindHeading, Level: 1, ID: "intro", Text: "Introduction"},
		{Kind: tree.KindContent, Text: "Some prose."},
		{Kind: tree.KindOperation, OpName: "llm", ID: "ask", Params: map[string]any{"prompt": "hi"}},
		{Kind: tree.KindHeading, Level: 2, ID: "answer", Text: "Answer"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return tr
}

func TestGenerateMermaid_LinearFlow(t *testing.T) {
	tr := sampleTree(t)
	out, err := Generate(tr, FormatMermaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "flowchart TD") {
		t.Error("missing flowchart header")
	}
	if !strings.Contains(out, "@llm") {
		t.Errorf("missing operation node, got:\n%s", out)
	}
	if !strings.Contains(out, "Introduction") {
		t.Errorf("missing heading node, got:\n%s", out)
	}
}

func TestGenerateMermaid_SequentialEdges(t *testing.T) {
	tr := sampleTree(t)
	out, err := Generate(tr, FormatMermaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nodes := tr.Iter()
	edge := safeID(nodes[0].Key) + " --> " + safeID(nodes[1].Key)
	if !strings.Contains(out, edge) {
		t.Errorf("missing sequential edge %q, got:\n%s", edge, out)
	}
}

func TestGenerateASCII(t *testing.T) {
	tr := sampleTree(t)
	out, err := Generate(tr, FormatASCII)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "@llm") {
		t.Error("missing operation label")
	}
	if !strings.Contains(out, "┌") {
		t.Error("missing box border")
	}
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	tr := tree.New()
	_, err := Generate(tr, "svg")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGenerate_NilTree(t *testing.T) {
	_, err := Generate(nil, FormatMermaid)
	if err == nil {
		t.Fatal("expected error for nil tree")
	}
}

func TestGenerate_EmptyTree(t *testing.T) {
	tr := tree.New()
	out, err := Generate(tr, FormatASCII)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "empty") {
		t.Errorf("expected empty-tree message, got:\n%s", out)
	}
}
