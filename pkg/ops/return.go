package ops

import (
	"context"

	"github.com/fractalic-ai/fractalic/pkg/interp"
	"github.com/fractalic-ai/fractalic/pkg/opctx"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

// ReturnHandler implements @return: build a fragment from resolved
// blocks then prompt, and halt the current run with it.
type ReturnHandler struct{}

func (ReturnHandler) Execute(ctx context.Context, eng *interp.Engine) (interp.Directive, error) {
	node := eng.Cur

	nodes, err := opctx.ResolveBlocks(eng.Tree, node.Params["block"])
	if err != nil {
		return interp.Directive{}, err
	}
	fragment := cloneFragment(nodes)

	if prompt := interp.StringParam(node, "prompt"); prompt != "" {
		fragment = append(fragment, &tree.Node{Kind: tree.KindContent, Text: prompt, Role: tree.RoleAssistant})
	}

	return interp.Directive{Kind: interp.DirHalt, Fragment: fragment}, nil
}
