package ops_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fractalic-ai/fractalic/pkg/interp"
	"github.com/fractalic-ai/fractalic/pkg/ops"
	"github.com/fractalic-ai/fractalic/pkg/parser"
	"github.com/fractalic-ai/fractalic/pkg/replay"
)

// TestShellReplayExecutorDeterministic runs @shell against a ReplayExecutor
// instead of a real subprocess, so the fixture in testdata/scenarios drives
// the output rather than whatever "sh" happens to do on the host.
func TestShellReplayExecutorDeterministic(t *testing.T) {
	scenario, err := replay.LoadScenario("../../testdata/scenarios/minimal-scenario.yaml")
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	handlers := map[string]interp.Handler{
		"shell": ops.ShellHandler{Executor: replay.NewReplayExecutor(scenario)},
	}

	src := "# Doc\n" +
		"@shell\n" +
		"prompt: \"echo hello\"\n" +
		"use-header: \"none\"\n"

	tr, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng := interp.New(tr, t.TempDir(), "test-run", handlers, nil, nil)
	res := eng.Run(context.Background())
	if res.Status != interp.StatusCompleted {
		t.Fatalf("expected completed, got %v (%v)", res.Status, res.Err)
	}

	found := false
	for n := eng.Tree.Head(); n != nil; n = n.Next {
		if strings.Contains(n.Text, "hello") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected replayed stdout to be merged into the tree")
	}
}

// TestShellReplayExecutorFailsClosed verifies an unrecorded command surfaces
// as a normal @shell error instead of falling through to a real spawn.
func TestShellReplayExecutorFailsClosed(t *testing.T) {
	scenario, err := replay.LoadScenario("../../testdata/scenarios/minimal-scenario.yaml")
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	handlers := map[string]interp.Handler{
		"shell": ops.ShellHandler{Executor: replay.NewReplayExecutor(scenario)},
	}

	src := "# Doc\n" +
		"@shell\n" +
		"prompt: \"echo not-recorded\"\n"

	tr, err := parser.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng := interp.New(tr, t.TempDir(), "test-run", handlers, nil, nil)
	res := eng.Run(context.Background())
	if res.Status != interp.StatusFailed {
		t.Fatalf("expected failed, got %v", res.Status)
	}
}
