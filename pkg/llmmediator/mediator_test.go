package llmmediator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fractalic-ai/fractalic/pkg/opctx"
	"github.com/fractalic-ai/fractalic/pkg/toolreg"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

type fakeProvider struct {
	calls     int
	responses []ChatResponse
}

func (f *fakeProvider) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	r := f.responses[f.calls]
	f.calls++
	return &r, nil
}

func TestRunNoTools(t *testing.T) {
	p := &fakeProvider{responses: []ChatResponse{{Text: "hello"}}}
	out, err := Run(context.Background(), p, nil, []opctx.Turn{{Role: tree.RoleUser, Text: "hi"}}, Options{ToolsTurnsMax: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Fatalf("got %q", out)
	}
}

func TestRunToolCallLoop(t *testing.T) {
	reg := toolreg.New()
	p := &fakeProvider{responses: []ChatResponse{
		{ToolCalls: []ToolCall{{ID: "1", Name: "unknown", Arguments: json.RawMessage(`{}`)}}},
		{Text: "done"},
	}}
	out, err := Run(context.Background(), p, reg, []opctx.Turn{{Role: tree.RoleUser, Text: "hi"}}, Options{ToolsTurnsMax: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "done" {
		t.Fatalf("got %q", out)
	}
}

func TestRunBadToolArgumentsSynthesizesError(t *testing.T) {
	reg := toolreg.New()
	p := &fakeProvider{responses: []ChatResponse{
		{ToolCalls: []ToolCall{{ID: "1", Name: "x", Arguments: json.RawMessage(`not json`)}}},
		{Text: "recovered"},
	}}
	out, err := Run(context.Background(), p, reg, []opctx.Turn{{Role: tree.RoleUser, Text: "hi"}}, Options{ToolsTurnsMax: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("got %q", out)
	}
}

type toolCallRecord struct {
	opKey, name string
	args        json.RawMessage
	result      string
}

type fakeSink struct {
	calls []toolCallRecord
}

func (f *fakeSink) ToolCall(opKey, name string, args json.RawMessage, result string) {
	f.calls = append(f.calls, toolCallRecord{opKey, name, args, result})
}

func TestRunRecordsToolCallTrace(t *testing.T) {
	reg := toolreg.New()
	p := &fakeProvider{responses: []ChatResponse{
		{ToolCalls: []ToolCall{{ID: "1", Name: "echo_tool", Arguments: json.RawMessage(`{"msg":"hi"}`)}}},
		{Text: "done"},
	}}
	sink := &fakeSink{}
	_, err := Run(context.Background(), p, reg, []opctx.Turn{{Role: tree.RoleUser, Text: "hi"}}, Options{
		ToolsTurnsMax: 3,
		Trace:         sink,
		OpKey:         "op-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.calls) != 1 {
		t.Fatalf("expected exactly one recorded tool call, got %d", len(sink.calls))
	}
	got := sink.calls[0]
	if got.opKey != "op-1" || got.name != "echo_tool" || string(got.args) != `{"msg":"hi"}` {
		t.Fatalf("unexpected recorded call: %+v", got)
	}
}

func TestRunExceedsToolsTurnsMax(t *testing.T) {
	reg := toolreg.New()
	call := ChatResponse{ToolCalls: []ToolCall{{ID: "1", Name: "x", Arguments: json.RawMessage(`{}`)}}}
	p := &fakeProvider{responses: []ChatResponse{call, call, call}}
	_, err := Run(context.Background(), p, reg, []opctx.Turn{{Role: tree.RoleUser, Text: "hi"}}, Options{ToolsTurnsMax: 3})
	if err == nil {
		t.Fatal("expected error when loop never terminates")
	}
}
