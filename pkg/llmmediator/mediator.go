// Package llmmediator implements the LLM mediator: a chat-provider
// interface consumed by @llm, a bounded tool-call loop, and the O-series
// parameter-restriction rule. It defines no concrete provider SDK — wiring
// an actual model API is explicitly out of scope for this engine,
// the same way gert's pkg/providers declares a Provider interface and lets
// pkg/providers/manual.go and pkg/providers/cli.go be the only concrete
// implementations it ships, both local/non-networked.
package llmmediator

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/opctx"
	"github.com/fractalic-ai/fractalic/pkg/toolreg"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

// ToolSpec is one tool exposed to the model in a chat turn, narrowed from
// a registry entry to what a provider needs to see.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolCall is a tool invocation the model asked for.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Attachment is a media reference resolved from the "media" param.
type Attachment struct {
	Path string
}

// ChatRequest is one turn of the chat completion loop.
type ChatRequest struct {
	Provider      string
	Model         string
	Temperature   *float64
	StopSequences []string
	Messages      []opctx.Turn
	Tools         []ToolSpec
	Attachments   []Attachment
	Stream        bool // false whenever Tools is non-empty: tool calls disable streaming
}

// ChatResponse is what a provider returns for one turn.
type ChatResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// ChatProvider is implemented by a concrete model backend. The only one
// this package ships is CLIProvider, which delegates to an external
// command; callers plug in whichever backend their deployment needs.
type ChatProvider interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ProviderLimits captures a provider's parameter restrictions: O-series
// models reject top_p and non-default temperature.
type ProviderLimits struct {
	FixedTemperature   bool // true rejects any explicit temperature override
	NoStopSequences    bool
}

// ToolTraceSink receives one event per tool call the mediator's loop
// executes, filed under the calling operation's key. interp.TraceSink
// satisfies this interface, but llmmediator does not depend on pkg/interp
// to avoid the import cycle interp already has on this package.
type ToolTraceSink interface {
	ToolCall(opKey, name string, args json.RawMessage, result string)
}

// Options configures one @llm invocation of the mediator.
type Options struct {
	Provider      string
	Model         string
	Temperature   *float64
	StopSequences []string
	ToolNames     []string // resolved tool names to expose; nil/empty means none
	ToolsTurnsMax int      // default handled by the caller; mediator just enforces the bound
	Limits        ProviderLimits
	Attachments   []Attachment

	// Trace and OpKey record tool-call fan-out under the calling @llm
	// operation's key. Both may be left zero; a nil Trace disables
	// tool-call recording.
	Trace ToolTraceSink
	OpKey string
}

// oSeriesLimits are the restrictions applied when a model is detected as an
// O-series reasoning model.
func oSeriesLimits(model string) ProviderLimits {
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") {
		return ProviderLimits{FixedTemperature: true}
	}
	return ProviderLimits{}
}

// Run drives the bounded tool-call loop: the provider is called,
// and if it returns tool calls, each is executed against the registry and
// its result appended as a new turn before calling the provider again, up
// to ToolsTurnsMax rounds. A tool call with arguments that don't parse as
// JSON does not fail the run — it synthesizes a {"error":"bad arguments"}
// reply turn so the model can retry or recover.
func Run(ctx context.Context, provider ChatProvider, tools *toolreg.Registry, turns []opctx.Turn, opts Options) (string, error) {
	limits := opts.Limits
	if limits == (ProviderLimits{}) {
		limits = oSeriesLimits(opts.Model)
	}

	temp := opts.Temperature
	stops := opts.StopSequences
	if limits.FixedTemperature {
		temp = nil
	}
	if limits.NoStopSequences {
		stops = nil
	}

	var specs []ToolSpec
	if tools != nil {
		for _, name := range opts.ToolNames {
			e, ok := tools.Get(name)
			if !ok {
				continue
			}
			specs = append(specs, ToolSpec{Name: e.Name, Description: e.Description, Schema: e.Schema})
		}
	}

	maxTurns := opts.ToolsTurnsMax
	if maxTurns <= 0 {
		maxTurns = 1
	}

	messages := append([]opctx.Turn(nil), turns...)

	for round := 0; round < maxTurns; round++ {
		req := ChatRequest{
			Provider:      opts.Provider,
			Model:         opts.Model,
			Temperature:   temp,
			StopSequences: stops,
			Messages:      messages,
			Tools:         specs,
			Attachments:   opts.Attachments,
			Stream:        len(specs) == 0,
		}

		resp, err := provider.Complete(ctx, req)
		if err != nil {
			return "", ferr.Wrap(ferr.KindLLM, err, "chat completion")
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		if resp.Text != "" {
			messages = append(messages, opctx.Turn{Role: tree.RoleAssistant, Text: resp.Text})
		}

		for _, call := range resp.ToolCalls {
			result := executeToolCall(ctx, tools, call)
			if opts.Trace != nil {
				opts.Trace.ToolCall(opts.OpKey, call.Name, call.Arguments, result)
			}
			messages = append(messages, opctx.Turn{Role: tree.RoleUser, Text: result})
		}
	}

	return "", ferr.New(ferr.KindLLM, "tool-call loop exceeded tools-turns-max (%d)", maxTurns)
}

func executeToolCall(ctx context.Context, tools *toolreg.Registry, call ToolCall) string {
	if tools == nil {
		return `{"error":"no tool registry available"}`
	}
	var probe any
	if len(call.Arguments) == 0 || json.Unmarshal(call.Arguments, &probe) != nil {
		return `{"error":"bad arguments"}`
	}
	out, err := tools.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		return `{"error":` + strquote(err.Error()) + `}`
	}
	return string(out)
}

func strquote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `"tool error"`
	}
	return string(b)
}
