package toolreg

import (
	"context"
	"encoding/json"
	"testing"
)

func TestRegistryLocalWinsOverRemote(t *testing.T) {
	r := New()
	r.mu.Lock()
	r.registerLocked(&Entry{
		Name: "search", source: sourceManifest,
		call: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			return json.RawMessage(`"local"`), nil
		},
	})
	r.registerLocked(&Entry{
		Name: "search", source: sourceRemote,
		call: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			return json.RawMessage(`"remote"`), nil
		},
	})
	r.mu.Unlock()

	out, err := r.Call(context.Background(), "search", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `"local"` {
		t.Fatalf("expected local entry to win, got %s", out)
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := New()
	if _, err := r.Call(context.Background(), "nope", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRegistryDiscoveredOverridesEarlierDiscovered(t *testing.T) {
	r := New()
	r.mu.Lock()
	r.registerLocked(&Entry{Name: "x", source: sourceDiscovered, call: func(ctx context.Context, a json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`1`), nil
	}})
	r.registerLocked(&Entry{Name: "x", source: sourceDiscovered, call: func(ctx context.Context, a json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`2`), nil
	}})
	r.mu.Unlock()

	out, _ := r.Call(context.Background(), "x", nil)
	if string(out) != "2" {
		t.Fatalf("expected latest discovered registration to win, got %s", out)
	}
}
