package interp

import (
	"testing"

	"github.com/fractalic-ai/fractalic/pkg/config"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

func TestModeOfExplicitParamWins(t *testing.T) {
	eng := &Engine{Config: &config.Config{DefaultOperation: "replace"}}
	node := &tree.Node{Params: map[string]any{"mode": "prepend"}}
	if got := ModeOf(eng, node); got != tree.ModePrepend {
		t.Fatalf("expected explicit mode to win, got %v", got)
	}
}

func TestModeOfFallsBackToConfigDefault(t *testing.T) {
	eng := &Engine{Config: &config.Config{DefaultOperation: "replace"}}
	node := &tree.Node{Params: map[string]any{}}
	if got := ModeOf(eng, node); got != tree.ModeReplace {
		t.Fatalf("expected configured default to apply, got %v", got)
	}
}

func TestModeOfDefaultsToAppendWhenConfigUnset(t *testing.T) {
	eng := &Engine{Config: &config.Config{}}
	node := &tree.Node{Params: map[string]any{}}
	if got := ModeOf(eng, node); got != tree.ModeAppend {
		t.Fatalf("expected append fallback, got %v", got)
	}
}

func TestModeOfDefaultsToAppendWhenConfigInvalid(t *testing.T) {
	eng := &Engine{Config: &config.Config{DefaultOperation: "bogus"}}
	node := &tree.Node{Params: map[string]any{}}
	if got := ModeOf(eng, node); got != tree.ModeAppend {
		t.Fatalf("expected append fallback for invalid config value, got %v", got)
	}
}

func TestFloatParamAcceptsIntAndFloat64(t *testing.T) {
	// yaml.Unmarshal decodes "temperature: 1" as Go int, "temperature: 1.5"
	// as float64 — both must read back correctly.
	node := &tree.Node{Params: map[string]any{"whole": int(1), "frac": float64(1.5)}}
	if v, ok := FloatParam(node, "whole"); !ok || v != 1 {
		t.Fatalf("expected (1, true) for int param, got (%v, %v)", v, ok)
	}
	if v, ok := FloatParam(node, "frac"); !ok || v != 1.5 {
		t.Fatalf("expected (1.5, true) for float64 param, got (%v, %v)", v, ok)
	}
	if _, ok := FloatParam(node, "missing"); ok {
		t.Fatal("expected ok=false for an absent key")
	}
	node.Params["wrong-type"] = "not a number"
	if _, ok := FloatParam(node, "wrong-type"); ok {
		t.Fatal("expected ok=false for a non-numeric param")
	}
}

func TestIntParamCoercesYAMLIntegerScalar(t *testing.T) {
	// A document that writes "tools-turns-max: 2" decodes that scalar as
	// Go int via yaml.Unmarshal into map[string]any, not float64.
	node := &tree.Node{Params: map[string]any{"tools-turns-max": int(2)}}
	if got := IntParam(node, "tools-turns-max", 5); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestIntParamFallsBackToDefault(t *testing.T) {
	node := &tree.Node{Params: map[string]any{"tools-turns-max": 2.5}}
	if got := IntParam(node, "tools-turns-max", 5); got != 5 {
		t.Fatalf("expected fallback to default for a non-whole number, got %d", got)
	}
	node = &tree.Node{Params: map[string]any{}}
	if got := IntParam(node, "tools-turns-max", 5); got != 5 {
		t.Fatalf("expected fallback to default when absent, got %d", got)
	}
}
