// Package snapshot implements the abstract version store the session
// recorder uses for its start/completion snapshots.
// Grounded on aretw0-trellis's redis-backed adapter pattern (a thin
// interface with a default local implementation and an optional redis
// implementation selected by config), adapted from trellis's key-value
// domain to a directory-of-files snapshot domain.
package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fractalic-ai/fractalic/pkg/ferr"
)

// Store persists a labelled snapshot of an execution directory's files.
type Store interface {
	Save(ctx context.Context, label string, files map[string][]byte) error
	Load(ctx context.Context, label string) (map[string][]byte, error)
	List(ctx context.Context) ([]string, error)
}

// FileStore is the default backend: one subdirectory per label under Dir,
// holding a manifest.json plus the raw file bytes.
type FileStore struct {
	Dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if absent.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ferr.Wrap(ferr.KindInternal, err, "create snapshot dir %s", dir)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) Save(ctx context.Context, label string, files map[string][]byte) error {
	dir := filepath.Join(s.Dir, label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferr.Wrap(ferr.KindInternal, err, "create snapshot %s", label)
	}
	names := make([]string, 0, len(files))
	for name, data := range files {
		names = append(names, name)
		if err := os.WriteFile(filepath.Join(dir, sanitizeName(name)), data, 0o644); err != nil {
			return ferr.Wrap(ferr.KindInternal, err, "write snapshot file %s/%s", label, name)
		}
	}
	manifest, err := json.Marshal(names)
	if err != nil {
		return ferr.Wrap(ferr.KindInternal, err, "marshal snapshot manifest")
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), manifest, 0o644)
}

func (s *FileStore) Load(ctx context.Context, label string) (map[string][]byte, error) {
	dir := filepath.Join(s.Dir, label)
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, ferr.Wrap(ferr.KindInternal, err, "read snapshot manifest %s", label)
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, ferr.Wrap(ferr.KindInternal, err, "decode snapshot manifest %s", label)
	}
	out := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, sanitizeName(name)))
		if err != nil {
			return nil, ferr.Wrap(ferr.KindInternal, err, "read snapshot file %s/%s", label, name)
		}
		out[name] = data
	}
	return out, nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ferr.Wrap(ferr.KindInternal, err, "list snapshot dir %s", s.Dir)
	}
	var labels []string
	for _, e := range entries {
		if e.IsDir() {
			labels = append(labels, e.Name())
		}
	}
	return labels, nil
}

// sanitizeName flattens a relative file path into a single path segment
// safe to place directly under a snapshot's directory.
func sanitizeName(name string) string {
	return filepath.Base(name)
}
