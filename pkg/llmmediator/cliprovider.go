package llmmediator

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
)

// CLIProvider is a ChatProvider that shells out to an external command for
// each completion, feeding it the request as JSON on stdin and reading a
// ChatResponse as JSON from stdout. This is the one concrete provider the
// engine ships, and it wires to no model API directly — it is the same
// subprocess-bridge shape as gert's pkg/providers.RealExecutor
// (exec.CommandContext, captured stdout/stderr, non-zero exit is an
// error), letting a deployment plug in any model CLI (a vendor's own
// wrapper, a local llama.cpp binary, a test double) without this engine
// depending on that vendor's SDK.
type CLIProvider struct {
	Command string
	Args    []string
}

func (p CLIProvider) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, ferr.Wrap(ferr.KindLLM, err, "marshal chat request")
	}

	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, ferr.Wrap(ferr.KindLLM, err, "chat provider command %s: %s", p.Command, stderr.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, ferr.Wrap(ferr.KindLLM, err, "decode chat provider response")
	}
	return &resp, nil
}

var _ ChatProvider = CLIProvider{}
