// Package recorder implements the session recorder: it snapshots
// the execution directory at run start and completion, streams progress
// events to an optional consumer, and emits the final `.ctx`/`.trc` pair.
// Grounded on ormasoftchile-gert's pkg/kernel/trace.Writer (append-only
// JSONL event stream keyed by run id), adapted from gert's step/branch
// event vocabulary to the six-operation vocabulary interp.TraceSink
// exposes.
package recorder

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fractalic-ai/fractalic/internal/snapshot"
	"github.com/fractalic-ai/fractalic/pkg/ferr"
	"github.com/fractalic-ai/fractalic/pkg/interp"
	"github.com/fractalic-ai/fractalic/pkg/render"
	"github.com/fractalic-ai/fractalic/pkg/tree"
)

var _ interp.TraceSink = (*Recorder)(nil)

// NewRunID mints a fresh run identifier for interp.New/Recorder.New, one
// per top-level `fractalic run` invocation (nested @run frames share the
// parent's RunID, per interp.Engine.Child).
func NewRunID() string {
	return uuid.NewString()
}

// EventType enumerates the operation lifecycle events a Recorder can emit,
// mirroring the six interp.TraceSink methods one-for-one.
type EventType string

const (
	EventOpStart    EventType = "op_start"
	EventOpComplete EventType = "op_complete"
	EventOpFailed   EventType = "op_failed"
	EventJump       EventType = "jump"
	EventHalt       EventType = "halt"
	EventToolCall   EventType = "tool_call"
)

// Event is one entry in the run's call tree / JSONL trace.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	OpKey     string    `json:"op_key,omitempty"`
	OpName    string    `json:"op_name,omitempty"`
	ToKey     string    `json:"to_key,omitempty"`
	Error     string    `json:"error,omitempty"`

	// ToolName/ToolArgs/ToolResult are populated on EventToolCall only,
	// one entry per tool the @llm at OpKey invoked.
	ToolName   string          `json:"tool_name,omitempty"`
	ToolArgs   json.RawMessage `json:"tool_args,omitempty"`
	ToolResult string          `json:"tool_result,omitempty"`
}

// Progress is a streaming progress notice for the HTTP façade's
// streaming variant, of shape {stage, progress, message, timestamp}.
type Progress struct {
	Stage     string    `json:"stage"`
	Progress  float64   `json:"progress"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder implements interp.TraceSink and owns the run's JSONL trace,
// snapshot labels, and optional progress stream. Callers use nowFn (a
// small time.Now indirection) so tests can pin timestamps.
type Recorder struct {
	mu       sync.Mutex
	runID    string
	docPath  string // absolute path to the source .md document
	execDir  string
	store    snapshot.Store
	progress func(Progress) // optional streaming consumer; nil if unused
	nowFn    func() time.Time

	events []Event
	jsonl  io.Writer // optional append-only sink, may be nil
}

// New creates a Recorder for one run of docPath, snapshotting to store
// under execDir. progress may be nil.
func New(runID, docPath, execDir string, store snapshot.Store, progress func(Progress)) *Recorder {
	return &Recorder{
		runID:    runID,
		docPath:  docPath,
		execDir:  execDir,
		store:    store,
		progress: progress,
		nowFn:    time.Now,
	}
}

// SetJSONLSink configures an append-only writer that receives each Event
// as it's recorded, in addition to being buffered for the final .trc.
func (r *Recorder) SetJSONLSink(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jsonl = w
}

func (r *Recorder) record(evt Event) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	w := r.jsonl
	r.mu.Unlock()

	if w != nil {
		data, err := json.Marshal(evt)
		if err == nil {
			data = append(data, '\n')
			_, _ = w.Write(data)
		}
	}
}

// OpStart implements interp.TraceSink.
func (r *Recorder) OpStart(opKey, opName string) {
	r.record(Event{Type: EventOpStart, Timestamp: r.nowFn().UTC(), RunID: r.runID, OpKey: opKey, OpName: opName})
	r.emitProgress("op_start", opName)
}

// OpComplete implements interp.TraceSink.
func (r *Recorder) OpComplete(opKey string) {
	r.record(Event{Type: EventOpComplete, Timestamp: r.nowFn().UTC(), RunID: r.runID, OpKey: opKey})
	r.emitProgress("op_complete", opKey)
}

// OpFailed implements interp.TraceSink.
func (r *Recorder) OpFailed(opKey string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.record(Event{Type: EventOpFailed, Timestamp: r.nowFn().UTC(), RunID: r.runID, OpKey: opKey, Error: msg})
	r.emitProgress("op_failed", msg)
}

// ToolCall implements interp.TraceSink, recording one tool invocation
// under the @llm operation key that requested it.
func (r *Recorder) ToolCall(opKey, name string, args json.RawMessage, result string) {
	r.record(Event{
		Type:       EventToolCall,
		Timestamp:  r.nowFn().UTC(),
		RunID:      r.runID,
		OpKey:      opKey,
		ToolName:   name,
		ToolArgs:   args,
		ToolResult: result,
	})
	r.emitProgress("tool_call", name)
}

// Jump implements interp.TraceSink.
func (r *Recorder) Jump(fromKey, toKey string) {
	r.record(Event{Type: EventJump, Timestamp: r.nowFn().UTC(), RunID: r.runID, OpKey: fromKey, ToKey: toKey})
	r.emitProgress("jump", toKey)
}

// Halt implements interp.TraceSink.
func (r *Recorder) Halt(opKey string) {
	r.record(Event{Type: EventHalt, Timestamp: r.nowFn().UTC(), RunID: r.runID, OpKey: opKey})
	r.emitProgress("halt", opKey)
}

func (r *Recorder) emitProgress(stage, message string) {
	if r.progress == nil {
		return
	}
	r.progress(Progress{Stage: stage, Progress: 0, Message: message, Timestamp: r.nowFn().UTC()})
}

// NewLabel mints a snapshot label of the form YYYYMMDDHHMMSS_<hex>_<slug>,
// where slug is the document's base filename lowercased, with each run of
// other characters than a-z and 0-9 turned into "-", outer dashes trimmed,
// and "doc" when nothing is left.
func NewLabel(now time.Time, docPath, suffix string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", ferr.Wrap(ferr.KindInternal, err, "generate snapshot label")
	}
	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	slug := slugifyLabel(base)
	if suffix != "" {
		slug = slug + "-" + suffix
	}
	return fmt.Sprintf("%s_%s_%s", now.UTC().Format("20060102150405"), hex.EncodeToString(buf), slug), nil
}

func slugifyLabel(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "doc"
	}
	return out
}

// SnapshotStart creates the run-start snapshot of the execution directory.
// Returns the label so callers can report it to failed/succeeded run
// responses.
func (r *Recorder) SnapshotStart(ctx context.Context) (string, error) {
	return r.snapshot(ctx, "start")
}

// SnapshotComplete creates the run-completion snapshot.
func (r *Recorder) SnapshotComplete(ctx context.Context) (string, error) {
	return r.snapshot(ctx, "done")
}

func (r *Recorder) snapshot(ctx context.Context, suffix string) (string, error) {
	if r.store == nil {
		return "", nil
	}
	label, err := NewLabel(r.nowFn(), r.docPath, suffix)
	if err != nil {
		return "", err
	}
	files, err := collectDir(r.execDir)
	if err != nil {
		return "", err
	}
	if err := r.store.Save(ctx, label, files); err != nil {
		return "", err
	}
	return label, nil
}

func collectDir(dir string) (map[string][]byte, error) {
	out := map[string][]byte{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, ferr.Wrap(ferr.KindInternal, err, "read execution dir %s", dir)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, ferr.Wrap(ferr.KindInternal, err, "read %s", e.Name())
		}
		out[e.Name()] = data
	}
	return out, nil
}

// Finalize renders the final tree to <base>.ctx and writes the buffered
// call tree to <base>.trc, where base is docPath without its extension.
func (r *Recorder) Finalize(t *tree.Tree) error {
	base := strings.TrimSuffix(r.docPath, filepath.Ext(r.docPath))

	md, err := render.Render(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+".ctx", []byte(md), 0o644); err != nil {
		return ferr.Wrap(ferr.KindInternal, err, "write %s.ctx", base)
	}

	r.mu.Lock()
	events := append([]Event(nil), r.events...)
	r.mu.Unlock()

	trc, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return ferr.Wrap(ferr.KindInternal, err, "marshal call tree")
	}
	if err := os.WriteFile(base+".trc", trc, 0o644); err != nil {
		return ferr.Wrap(ferr.KindInternal, err, "write %s.trc", base)
	}
	return nil
}
