// Package replay implements a deterministic CommandExecutor for @shell,
// matching commands against pre-recorded scenario entries instead of
// spawning a real subprocess. Adapted from gert's pkg/replay, which replays
// runbook step commands against YAML fixtures the same way.
package replay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a replay fixture: an ordered list of expected commands and
// their pre-recorded output.
type Scenario struct {
	Commands []ScenarioCommand `yaml:"commands"`
}

// ScenarioCommand is a pre-recorded command with its expected output.
type ScenarioCommand struct {
	Argv     []string `yaml:"argv"`
	Stdout   string   `yaml:"stdout"`
	Stderr   string   `yaml:"stderr"`
	ExitCode int      `yaml:"exit_code"`
}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Commands) == 0 {
		return nil, fmt.Errorf("scenario must have at least one command")
	}
	return &s, nil
}
