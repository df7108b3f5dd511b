package replay

import (
	"context"
	"fmt"
	"strings"

	"github.com/fractalic-ai/fractalic/pkg/ops"
)

// ReplayExecutor implements ops.CommandExecutor by matching commands
// against pre-recorded scenario entries. Fail-closed: returns an error if
// no entry matches, rather than falling through to a real spawn.
type ReplayExecutor struct {
	scenario *Scenario
	used     []bool
}

// NewReplayExecutor creates a ReplayExecutor from a loaded scenario.
func NewReplayExecutor(s *Scenario) *ReplayExecutor {
	return &ReplayExecutor{
		scenario: s,
		used:     make([]bool, len(s.Commands)),
	}
}

// Execute matches shell+args against scenario entries in order and returns
// the pre-recorded response. Each entry is consumed at most once, so a
// scenario can record two calls to the same command with different output.
func (r *ReplayExecutor) Execute(ctx context.Context, shell string, args []string, dir string, env []string) (*ops.CommandResult, error) {
	fullArgv := append([]string{shell}, args...)

	for i, sc := range r.scenario.Commands {
		if r.used[i] {
			continue
		}
		if argvMatch(fullArgv, sc.Argv) {
			r.used[i] = true
			return &ops.CommandResult{
				Stdout:   []byte(sc.Stdout),
				Stderr:   []byte(sc.Stderr),
				ExitCode: sc.ExitCode,
			}, nil
		}
	}

	return nil, fmt.Errorf("replay: no matching scenario entry for command: %s", strings.Join(fullArgv, " "))
}

func argvMatch(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i := range actual {
		if actual[i] != expected[i] {
			return false
		}
	}
	return true
}
