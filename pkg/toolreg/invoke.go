package toolreg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
)

// callSimpleJSON invokes path with a single positional JSON-encoded
// argument and treats stdout as the JSON result verbatim: a local
// simple-json tool is invoked with a single JSON argument; stdout is parsed
// as the JSON result").
func callSimpleJSON(ctx context.Context, path string, args json.RawMessage) (json.RawMessage, error) {
	cmd := exec.CommandContext(ctx, path, string(args))
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, ferr.Wrap(ferr.KindTool, err, "tool %s: %s", path, errBuf.String())
	}
	trimmed := bytes.TrimSpace(out.Bytes())
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, ferr.Wrap(ferr.KindTool, err, "tool %s produced invalid JSON", path)
	}
	return trimmed, nil
}

// callCLIFlags invokes path with `--flag value` pairs derived from args, in
// sorted key order for determinism, and wraps raw stdout as the result:
// a local CLI tool is invoked with --flag value pairs derived from the
// schema; stdout is the result. If stdout happens to already be JSON it
// is passed through unwrapped so downstream consumers see structured data.
func callCLIFlags(ctx context.Context, path string, args json.RawMessage) (json.RawMessage, error) {
	var m map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &m); err != nil {
			return nil, ferr.Wrap(ferr.KindTool, err, "tool %s: arguments must be a JSON object", path)
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var argv []string
	for _, k := range keys {
		argv = append(argv, "--"+k, fmt.Sprintf("%v", m[k]))
	}

	cmd := exec.CommandContext(ctx, path, argv...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, ferr.Wrap(ferr.KindTool, err, "tool %s: %s", path, errBuf.String())
	}

	trimmed := bytes.TrimSpace(out.Bytes())
	var v any
	if err := json.Unmarshal(trimmed, &v); err == nil {
		return trimmed, nil
	}
	wrapped, err := json.Marshal(map[string]string{"stdout": string(trimmed)})
	if err != nil {
		return nil, ferr.Wrap(ferr.KindInternal, err, "marshal tool stdout")
	}
	return wrapped, nil
}
