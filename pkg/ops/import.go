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

// ImportHandler implements @import: parse a source file, select the
// referenced fragment, merge fresh copies of it at the target.
type ImportHandler struct{}

func (ImportHandler) Execute(ctx context.Context, eng *interp.Engine) (interp.Directive, error) {
	node := eng.Cur
	file := interp.StringParam(node, "file")
	path := filepath.Join(eng.BaseDir, file)

	data, err := os.ReadFile(path)
	if err != nil {
		return interp.Directive{}, ferr.Wrap(ferr.KindFileNotFnd, err, "@import file %s", path)
	}

	srcTree, err := parser.Parse(data)
	if err != nil {
		return interp.Directive{}, err
	}

	var selected []*tree.Node
	if len(opctx.BlockPaths(node.Params["block"])) > 0 {
		selected, err = opctx.ResolveBlocks(srcTree, node.Params["block"])
		if err != nil {
			return interp.Directive{}, err
		}
	} else {
		selected = srcTree.Iter()
	}

	fragment := cloneFragment(selected)
	if err := eng.Merge(node, interp.StringParam(node, "to"), interp.ModeOf(eng, node), fragment); err != nil {
		return interp.Directive{}, err
	}
	return interp.Directive{Kind: interp.DirAdvance}, nil
}
