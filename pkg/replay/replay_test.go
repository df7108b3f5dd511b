package replay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioParsing(t *testing.T) {
	data := []byte(`
commands:
  - argv: ["echo", "hello"]
    stdout: "hello\n"
    stderr: ""
    exit_code: 0
  - argv: ["kubectl", "get", "pods"]
    stdout: "NAME  READY\npod1  1/1\n"
    stderr: ""
    exit_code: 0
`)
	s, err := ParseScenario(data)
	require.NoError(t, err)
	assert.Len(t, s.Commands, 2)
}

func TestScenarioParsingEmpty(t *testing.T) {
	_, err := ParseScenario([]byte(`{}`))
	assert.Error(t, err)
}

func TestScenarioParsingInvalidYAML(t *testing.T) {
	_, err := ParseScenario([]byte(`{{{invalid`))
	assert.Error(t, err)
}

func TestReplayExecutorCommandMatching(t *testing.T) {
	s := &Scenario{
		Commands: []ScenarioCommand{
			{Argv: []string{"sh", "-c", "echo hello"}, Stdout: "hello\n", ExitCode: 0},
			{Argv: []string{"sh", "-c", "kubectl get pods"}, Stdout: "pod1\n", ExitCode: 0},
		},
	}
	exec := NewReplayExecutor(s)
	ctx := context.Background()

	result, err := exec.Execute(ctx, "sh", []string{"-c", "echo hello"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(result.Stdout))

	result, err = exec.Execute(ctx, "sh", []string{"-c", "kubectl get pods"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "pod1\n", string(result.Stdout))
}

func TestReplayExecutorFailClosed(t *testing.T) {
	s := &Scenario{
		Commands: []ScenarioCommand{
			{Argv: []string{"sh", "-c", "echo hello"}, Stdout: "hello\n", ExitCode: 0},
		},
	}
	exec := NewReplayExecutor(s)
	_, err := exec.Execute(context.Background(), "sh", []string{"-c", "rm -rf /"}, "", nil)
	assert.Error(t, err)
}

func TestReplayExecutorNonZeroExit(t *testing.T) {
	s := &Scenario{
		Commands: []ScenarioCommand{
			{Argv: []string{"sh", "-c", "false"}, Stdout: "", Stderr: "error\n", ExitCode: 1},
		},
	}
	exec := NewReplayExecutor(s)
	result, err := exec.Execute(context.Background(), "sh", []string{"-c", "false"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, "error\n", string(result.Stderr))
}

func TestReplayExecutorUsedOnce(t *testing.T) {
	s := &Scenario{
		Commands: []ScenarioCommand{
			{Argv: []string{"sh", "-c", "echo first"}, Stdout: "first\n", ExitCode: 0},
			{Argv: []string{"sh", "-c", "echo first"}, Stdout: "second\n", ExitCode: 0},
		},
	}
	exec := NewReplayExecutor(s)
	ctx := context.Background()

	r1, err := exec.Execute(ctx, "sh", []string{"-c", "echo first"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(r1.Stdout))

	r2, err := exec.Execute(ctx, "sh", []string{"-c", "echo first"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(r2.Stdout))
}

func TestLoadScenarioFile(t *testing.T) {
	s, err := LoadScenario("../../testdata/scenarios/minimal-scenario.yaml")
	require.NoError(t, err)
	require.Len(t, s.Commands, 1)
	assert.Equal(t, "sh", s.Commands[0].Argv[0])
}
