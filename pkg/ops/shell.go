package ops

import (
	"context"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/interp"
)

// defaultShellHeader is @shell's default response-wrapper heading.
const defaultShellHeader = "OS Shell Tool response block"

// ShellHandler implements @shell: spawn a shell in the document's
// directory, pass prompt as its -c script, wrap stdout as a fragment. Grounded
// on gert's pkg/tools/stdio.go executeWithBinaryFallback spawn pattern,
// adapted from argv-templated tool invocation to a piped shell session.
type ShellHandler struct {
	// Shell is the interpreter binary to invoke. Execute falls back to "sh"
	// when Shell is empty and to args "-c", prompt when Args is empty.
	Shell string
	Args  []string

	// Executor runs the command; defaults to a real subprocess spawn.
	// Tests substitute pkg/replay's ReplayExecutor for deterministic runs.
	Executor CommandExecutor
}

func (h ShellHandler) Execute(ctx context.Context, eng *interp.Engine) (interp.Directive, error) {
	node := eng.Cur
	prompt := interp.StringParam(node, "prompt")

	timeout := eng.Config.Timeouts.Shell
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shell := h.Shell
	if shell == "" {
		shell = "sh"
	}
	args := h.Args
	if len(args) == 0 {
		args = []string{"-c", prompt}
	}

	executor := h.Executor
	if executor == nil {
		executor = realExecutor{}
	}

	result, err := executor.Execute(runCtx, shell, args, eng.BaseDir, eng.Config.ShellEnv())
	if err != nil {
		return interp.Directive{}, ferr.Wrap(ferr.KindShell, err, "@shell failed to run")
	}
	if eng.Trace != nil {
		// stderr is kept out of the tree and written to the debug log; it
		// is not passed to the trace sink.
		eng.Logger.Sugar().Debugw("shell stderr", "op", node.Key, "stderr", string(result.Stderr))
	}
	if result.ExitCode != 0 {
		return interp.Directive{}, ferr.New(ferr.KindShell, "@shell exited non-zero (%d): %s", result.ExitCode, string(result.Stderr))
	}

	body := string(result.Stdout)

	if headerSuppressed(node) {
		frag := plainContentFragment(body)
		if err := eng.Merge(node, interp.StringParam(node, "to"), interp.ModeOf(eng, node), frag); err != nil {
			return interp.Directive{}, err
		}
		return interp.Directive{Kind: interp.DirAdvance}, nil
	}

	header := headerTextOr(node, defaultShellHeader)
	frag := wrapWithHeader(header, node.Level, body)
	if err := eng.Merge(node, interp.StringParam(node, "to"), interp.ModeOf(eng, node), frag); err != nil {
		return interp.Directive{}, err
	}
	return interp.Directive{Kind: interp.DirAdvance}, nil
}
