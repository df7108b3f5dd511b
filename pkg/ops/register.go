package ops

import "github.com/fractalic-ai/fractalic/pkg/interp"

// Register returns the concrete Handler for every known operation name,
// ready to hand to interp.New.
func Register() map[string]interp.Handler {
	return map[string]interp.Handler{
		"import": ImportHandler{},
		"shell":  ShellHandler{},
		"llm":    LLMHandler{},
		"run":    RunHandler{},
		"return": ReturnHandler{},
		"goto":   GotoHandler{},
	}
}
