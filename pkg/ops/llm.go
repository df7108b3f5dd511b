package ops

import (
	"context"
	"os"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/interp"
	"github.com/fractalic-ai/fractalic/pkg/llmmediator"
	"github.com/fractalic-ai/fractalic/pkg/opctx"
)

// defaultLLMHeader is this engine's synthesized wrapper heading for an
// @llm response, mirroring @shell's convention (an explicit default header
// is only named for @shell; we extend the same pattern here since
// use-header's suppression semantics are shared across every operation
// that can wrap output, and a bare response with no context of what
// produced it would be a regression from @shell's behavior).
const defaultLLMHeader = "LLM response block"

// defaultToolsTurnsMax bounds the tool-call loop when the operation omits
// tools-turns-max (the param is optional with no stated default; five
// rounds matches gert's own default retry/step bound for
// bounded loops elsewhere in the kernel).
const defaultToolsTurnsMax = 5

// LLMHandler implements @llm.
type LLMHandler struct{}

func (LLMHandler) Execute(ctx context.Context, eng *interp.Engine) (interp.Directive, error) {
	node := eng.Cur

	turns, err := opctx.Build(eng.Tree, node, node.Params["block"], interp.StringParam(node, "prompt"))
	if err != nil {
		return interp.Directive{}, err
	}

	provider := interp.StringParam(node, "provider")
	if provider == "" {
		provider = eng.Config.DefaultProvider
	}
	model := interp.StringParam(node, "model")
	if model == "" {
		if pc, ok := eng.Config.Providers[provider]; ok {
			model = pc.Model
		}
	}

	var temperature *float64
	if v, ok := interp.FloatParam(node, "temperature"); ok {
		temperature = &v
	}

	var stops []string
	if raw, ok := node.Params["stop-sequences"].([]any); ok {
		for _, s := range raw {
			if str, ok := s.(string); ok {
				stops = append(stops, str)
			}
		}
	}

	toolNames := resolveToolNames(eng, node.Params["tools"])

	maxTurns := interp.IntParam(node, "tools-turns-max", defaultToolsTurnsMax)
	if maxTurns <= 0 {
		maxTurns = defaultToolsTurnsMax
	}

	var attachments []llmmediator.Attachment
	if raw, ok := node.Params["media"].([]any); ok {
		for _, m := range raw {
			if s, ok := m.(string); ok {
				attachments = append(attachments, llmmediator.Attachment{Path: s})
			}
		}
	}

	if eng.LLM == nil {
		return interp.Directive{}, ferr.New(ferr.KindLLM, "@llm: no chat provider configured")
	}

	text, err := llmmediator.Run(ctx, eng.LLM, eng.Tools, turns, llmmediator.Options{
		Provider:      provider,
		Model:         model,
		Temperature:   temperature,
		StopSequences: stops,
		ToolNames:     toolNames,
		ToolsTurnsMax: maxTurns,
		Attachments:   attachments,
		Trace:         eng.Trace,
		OpKey:         node.Key,
	})
	if err != nil {
		return interp.Directive{}, err
	}

	if saveTo := interp.StringParam(node, "save-to-file"); saveTo != "" {
		if err := os.WriteFile(saveTo, []byte(text), 0o644); err != nil {
			return interp.Directive{}, ferr.Wrap(ferr.KindInternal, err, "@llm save-to-file %s", saveTo)
		}
	}

	frag := buildResponseFragment(node, text)
	if err := eng.Merge(node, interp.StringParam(node, "to"), interp.ModeOf(eng, node), frag); err != nil {
		return interp.Directive{}, err
	}
	return interp.Directive{Kind: interp.DirAdvance}, nil
}

// resolveToolNames expands the "tools" param ("none"|"all"|[name,...])
// against the engine's registry. Default is "none": no tools exposed.
func resolveToolNames(eng *interp.Engine, raw any) []string {
	switch v := raw.(type) {
	case string:
		if v == "all" && eng.Tools != nil {
			return eng.Tools.List()
		}
		return nil
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
