// Package interp implements the linear operation-interpreter driver and
// merge semantics. It owns no knowledge of individual operations —
// those are supplied by callers as a Handlers map so this package never
// needs to import the concrete operation implementations in pkg/ops
// (avoiding an import cycle, since ops needs the Engine/Handler types
// defined here).
package interp

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fractalic-ai/fractalic/pkg/address"
	"github.com/fractalic-ai/fractalic/pkg/config"
	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/llmmediator"
	"github.com/fractalic-ai/fractalic/pkg/parser"
	"github.com/fractalic-ai/fractalic/pkg/toolreg"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

// DirectiveKind is the result the driver loop applies after a handler runs.
type DirectiveKind int

const (
	DirAdvance DirectiveKind = iota
	DirJump
	DirHalt
)

// Directive is what an operation handler returns to the driver loop.
type Directive struct {
	Kind     DirectiveKind
	Jump     *tree.Node // for DirJump
	Fragment []*tree.Node
}

// Status is the terminal state of one interpreter Run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusHalted    Status = "halted"
	StatusFailed    Status = "failed"
)

// RunResult is the outcome of Engine.Run.
type RunResult struct {
	Status         Status
	ReturnFragment []*tree.Node // populated when Status==StatusHalted (from @return)
	Err            error
}

// TraceSink receives operation-level lifecycle events. The concrete
// implementation lives in pkg/recorder; interp only depends on this
// narrow interface to stay decoupled from the recorder's JSONL format.
type TraceSink interface {
	OpStart(opKey, opName string)
	OpComplete(opKey string)
	OpFailed(opKey string, err error)
	Jump(fromKey, toKey string)
	Halt(opKey string)

	// ToolCall records one tool invocation made by an @llm's tool-call
	// loop, filed under the @llm operation's key so the call tree shows
	// tool fan-out nested under its owning operation.
	ToolCall(opKey, name string, args json.RawMessage, result string)
}

// Handler executes one operation node and reports what the driver loop
// should do next. Each of the six operations gets a Handler.
type Handler interface {
	Execute(ctx context.Context, eng *Engine) (Directive, error)
}

// Engine drives one run of the interpreter over a single tree. A
// nested @run creates a new Engine over a fresh child tree; it never
// shares nodes with the caller.
type Engine struct {
	Tree    *tree.Tree
	BaseDir string
	RunID   string
	Depth   int // nesting depth via @run, for diagnostics only — no cycle limit is imposed

	Handlers map[string]Handler
	Trace    TraceSink
	Logger   *zap.Logger

	// Config, Tools, and LLM are the shared services operation handlers in
	// pkg/ops draw on: configured timeouts/env, the merged tool
	// registry, and the chat provider driving @llm. Every
	// nested @run engine shares the same instances — the tool registry and
	// chat provider are process-wide resources, not per-tree state.
	Config *config.Config
	Tools  *toolreg.Registry
	LLM    llmmediator.ChatProvider

	// Cur is exported so a Handler executing on behalf of the current
	// operation node can read/act on it via eng.Cur.
	Cur *tree.Node
}

// New creates an engine ready to run t from its head.
func New(t *tree.Tree, baseDir, runID string, handlers map[string]Handler, trace TraceSink, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Tree:     t,
		BaseDir:  baseDir,
		RunID:    runID,
		Handlers: handlers,
		Trace:    trace,
		Logger:   logger,
		Config:   config.Default(),
	}
}

// Child creates a new engine over t for a nested @run invocation: @run
// recursively invokes the interpreter on the child tree with a new
// frame, sharing this engine's handlers, trace sink, logger, config, tool
// registry, and chat provider, with its own BaseDir, no Cur yet, and
// Depth one greater than this engine's.
func (e *Engine) Child(t *tree.Tree, baseDir string) *Engine {
	return &Engine{
		Tree:     t,
		BaseDir:  baseDir,
		RunID:    e.RunID,
		Depth:    e.Depth + 1,
		Handlers: e.Handlers,
		Trace:    e.Trace,
		Logger:   e.Logger,
		Config:   e.Config,
		Tools:    e.Tools,
		LLM:      e.LLM,
	}
}

// Run executes the tree sequentially from its head via the driver loop.
func (e *Engine) Run(ctx context.Context) *RunResult {
	cursor := e.Tree.Head()
	for cursor != nil {
		if err := ctx.Err(); err != nil {
			return &RunResult{Status: StatusFailed, Err: ferr.Wrap(ferr.KindCancelled, err, "run cancelled")}
		}

		if cursor.Kind != tree.KindOperation {
			cursor = cursor.Next
			continue
		}

		runOnce, _ := cursor.Params["run-once"].(bool)
		if runOnce && cursor.Fired() {
			cursor = cursor.Next
			continue
		}

		handler, ok := e.Handlers[cursor.OpName]
		if !ok {
			return &RunResult{Status: StatusFailed, Err: ferr.New(ferr.KindInternal, "no handler registered for @%s", cursor.OpName)}
		}

		e.Cur = cursor
		if e.Trace != nil {
			e.Trace.OpStart(cursor.Key, cursor.OpName)
		}

		directive, err := handler.Execute(ctx, e)
		if err != nil {
			if e.Trace != nil {
				e.Trace.OpFailed(cursor.Key, err)
			}
			return &RunResult{Status: StatusFailed, Err: err}
		}
		if runOnce {
			cursor.MarkFired()
		}
		if e.Trace != nil {
			e.Trace.OpComplete(cursor.Key)
		}

		switch directive.Kind {
		case DirAdvance:
			cursor = cursor.Next
		case DirJump:
			if e.Trace != nil {
				e.Trace.Jump(e.Cur.Key, directive.Jump.Key)
			}
			cursor = directive.Jump
		case DirHalt:
			if e.Trace != nil {
				e.Trace.Halt(e.Cur.Key)
			}
			return &RunResult{Status: StatusHalted, ReturnFragment: directive.Fragment}
		}
	}
	return &RunResult{Status: StatusCompleted}
}

// Merge splices fragment into e.Tree per the target-resolution rule:
// target defaults to opNode itself; if toRaw is non-empty, it is resolved
// as a block path instead. Any operation nodes inside fragment (e.g. a
// whole imported document) get id=op-<key> finalized once keys are
// assigned. Fragment nodes with no role get role=assistant; nodes that
// already carry a role (such as imported or returned document nodes)
// keep it.
func (e *Engine) Merge(opNode *tree.Node, toRaw string, mode tree.MergeMode, fragment []*tree.Node) error {
	for _, n := range fragment {
		if n.Role == "" {
			n.Role = tree.RoleAssistant
		}
	}

	target := opNode
	if toRaw != "" {
		nodes, err := address.Resolve(e.Tree, address.ParsePath(toRaw))
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return ferr.New(ferr.KindBlockNotFnd, "merge target %q not found", toRaw)
		}
		target = nodes[0]
	}

	spliced, err := e.Tree.Insert(target, fragment, mode)
	if err != nil {
		return err
	}
	parser.FinalizeOpIDs(spliced)
	return nil
}

// ModeOf reads the "mode" param off an operation node. Absent an explicit
// mode, it falls back to the engine's configured defaultOperation
// (append/prepend/replace); an engine/config with no valid override
// falls back further to append.
func ModeOf(eng *Engine, node *tree.Node) tree.MergeMode {
	if m, ok := node.Params["mode"].(string); ok && m != "" {
		return tree.MergeMode(m)
	}
	if eng != nil && eng.Config != nil {
		switch tree.MergeMode(eng.Config.DefaultOperation) {
		case tree.ModeAppend, tree.ModePrepend, tree.ModeReplace:
			return tree.MergeMode(eng.Config.DefaultOperation)
		}
	}
	return tree.ModeAppend
}

// StringParam reads a string param, returning "" if absent or wrong type.
func StringParam(node *tree.Node, key string) string {
	if v, ok := node.Params[key].(string); ok {
		return v
	}
	return ""
}

// FloatParam reads a numeric param as a float64, returning (0, false) if
// absent or not numeric. yaml.Unmarshal decodes an integer scalar (e.g.
// "tools-turns-max: 2") as Go int and a fractional one as float64, so both
// underlying types must be accepted here rather than asserting float64
// alone.
func FloatParam(node *tree.Node, key string) (float64, bool) {
	switch v := node.Params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// IntParam reads a numeric param as an int, defaulting to def when absent,
// not numeric, or not a whole number.
func IntParam(node *tree.Node, key string, def int) int {
	v, ok := FloatParam(node, key)
	if !ok || v != float64(int(v)) {
		return def
	}
	return int(v)
}

// BoolParam reads a bool param, defaulting to def.
func BoolParam(node *tree.Node, key string, def bool) bool {
	if v, ok := node.Params[key].(bool); ok {
		return v
	}
	return def
}

// UseHeaderSuppressed reports whether use-header requests suppression
// ("none", case-insensitive).
func UseHeaderSuppressed(node *tree.Node) bool {
	v := StringParam(node, "use-header")
	return equalFoldNone(v)
}

func equalFoldNone(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i, c := range []byte("none") {
		sc := s[i]
		if sc >= 'A' && sc <= 'Z' {
			sc += 'a' - 'A'
		}
		if sc != c {
			return false
		}
	}
	return true
}
