package ops

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/interp"
	"github.com/fractalic-ai/fractalic/pkg/opctx"
	"github.com/fractalic-ai/fractalic/pkg/parser"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

// inputParametersHeader is the standard header @run prepends to the child
// tree's input fragment.
const inputParametersHeader = "# Input Parameters {id=input-parameters}"

// RunHandler implements @run: recursively invoke the interpreter
// over a freshly parsed child tree, isolated from the caller's tree, then
// merge its captured return value back at the target.
type RunHandler struct{}

func (RunHandler) Execute(ctx context.Context, eng *interp.Engine) (interp.Directive, error) {
	node := eng.Cur
	file := interp.StringParam(node, "file")
	path := filepath.Join(eng.BaseDir, file)

	data, err := os.ReadFile(path)
	if err != nil {
		return interp.Directive{}, ferr.Wrap(ferr.KindFileNotFnd, err, "@run file %s", path)
	}
	childTree, err := parser.Parse(data)
	if err != nil {
		return interp.Directive{}, err
	}

	turns, err := opctx.Build(eng.Tree, node, node.Params["block"], interp.StringParam(node, "prompt"))
	if err != nil && !isEmptyContextErr(err) {
		return interp.Directive{}, err
	}
	inputMarkdown := opctx.Markdown(turns)

	if inputMarkdown != "" && !headerSuppressed(node) {
		prependInputFragment(childTree, inputMarkdown)
	} else if inputMarkdown != "" {
		prependPlainFragment(childTree, inputMarkdown)
	}

	childEngine := eng.Child(childTree, filepath.Dir(path))
	result := childEngine.Run(ctx)
	if result.Status == interp.StatusFailed {
		return interp.Directive{}, ferr.ChildFailed(result.Err).At("@run " + file)
	}

	var captured []*tree.Node
	if result.Status == interp.StatusHalted {
		captured = result.ReturnFragment
	} else {
		captured = childTree.Iter()
	}
	fragment := cloneFragment(captured)

	if err := eng.Merge(node, interp.StringParam(node, "to"), interp.ModeOf(eng, node), fragment); err != nil {
		return interp.Directive{}, err
	}
	return interp.Directive{Kind: interp.DirAdvance}, nil
}

// isEmptyContextErr reports whether err is opctx.Build's internal error for
// "neither block nor prompt supplied" — unlike @llm/@return, @run's schema
// does not require either, so an empty input fragment is valid, not fatal.
func isEmptyContextErr(err error) bool {
	fe, ok := err.(*ferr.Error)
	return ok && fe.Kind == ferr.KindInternal
}

func prependInputFragment(t *tree.Tree, body string) {
	heading := &tree.Node{Kind: tree.KindHeading, Level: 1, ID: "input-parameters", Text: inputParametersHeader, Role: tree.RoleUser}
	content := &tree.Node{Kind: tree.KindContent, Level: 1, Text: body, Role: tree.RoleUser}
	head := t.Head()
	if head == nil {
		t.Seed([]*tree.Node{heading, content})
		return
	}
	t.Insert(head, []*tree.Node{heading, content}, tree.ModePrepend)
}

func prependPlainFragment(t *tree.Tree, body string) {
	content := &tree.Node{Kind: tree.KindContent, Level: 1, Text: body, Role: tree.RoleUser}
	head := t.Head()
	if head == nil {
		t.Seed([]*tree.Node{content})
		return
	}
	t.Insert(head, []*tree.Node{content}, tree.ModePrepend)
}
