package ops

import (
	"context"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/interp"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

// GotoHandler implements @goto: resolve block to a heading node in
// the current tree and jump. Per the Open Question resolution recorded in
// DESIGN.md, only heading targets are permitted — targeting an operation or
// content node is a fatal parse-time-shaped error surfaced at run time,
// since address resolution has no notion of node kind.
type GotoHandler struct{}

func (GotoHandler) Execute(ctx context.Context, eng *interp.Engine) (interp.Directive, error) {
	node := eng.Cur
	query := interp.StringParam(node, "block")

	target := eng.Tree.FindByIDOrKey(query)
	if target == nil {
		return interp.Directive{}, ferr.New(ferr.KindBlockNotFnd, "@goto: block %q not found", query)
	}
	if target.Kind != tree.KindHeading {
		return interp.Directive{}, ferr.New(ferr.KindBlockNotFnd, "@goto: block %q is not a heading", query)
	}

	return interp.Directive{Kind: interp.DirJump, Jump: target}, nil
}
