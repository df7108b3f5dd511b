package snapshot_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/fractalic-ai/fractalic/internal/snapshot"
)

func TestFileStoreSaveLoadList(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	files := map[string][]byte{"doc.ctx": []byte("# Doc\n"), "doc.trc": []byte("[]")}
	if err := store.Save(ctx, "20260806120000_abcd1234_doc-start", files); err != nil {
		t.Fatalf("Save: %v", err)
	}

	labels, err := store.List(ctx)
	if err != nil || len(labels) != 1 {
		t.Fatalf("List: labels=%v err=%v", labels, err)
	}

	loaded, err := store.Load(ctx, labels[0])
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(loaded["doc.ctx"]) != "# Doc\n" {
		t.Fatalf("unexpected loaded content: %q", loaded["doc.ctx"])
	}
}

// TestRedisStoreContract mirrors aretw0-trellis's redis-adapter test
// shape: spin up miniredis, run the same Save/Load/List sequence a real
// deployment would.
func TestRedisStoreContract(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := snapshot.NewRedisStoreFromClient(client)
	ctx := context.Background()

	files := map[string][]byte{"doc.ctx": []byte("# Doc\n")}
	if err := store.Save(ctx, "label-1", files); err != nil {
		t.Fatalf("Save: %v", err)
	}

	labels, err := store.List(ctx)
	if err != nil || len(labels) != 1 || labels[0] != "label-1" {
		t.Fatalf("List: labels=%v err=%v", labels, err)
	}

	loaded, err := store.Load(ctx, "label-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(loaded["doc.ctx"]) != "# Doc\n" {
		t.Fatalf("unexpected loaded content: %q", loaded["doc.ctx"])
	}

	if _, err := store.Load(ctx, "missing"); err == nil {
		t.Fatal("expected error loading missing label")
	}
}
