package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/quiverhq/quiver/pkg/backend"
	"github.com/quiverhq/quiver/pkg/config"
)

func TestNewUnsupportedProvider(t *testing.T) {
	_, err := New("vector.main", config.Settings{"provider": "faiss"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}

	var unsupported *backend.UnsupportedProviderError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error = %v, want *backend.UnsupportedProviderError", err)
	}
	if unsupported.Provider != "faiss" {
		t.Errorf("provider = %q", unsupported.Provider)
	}
}

func TestChromemUpsertSearch(t *testing.T) {
	store, err := NewChromemStore("vector.main", Config{})
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	docs := map[string][]float32{
		"doc-1": {1, 0, 0},
		"doc-2": {0, 1, 0},
		"doc-3": {0.9, 0.1, 0},
	}
	for id, vec := range docs {
		err := store.Upsert(ctx, "notes", id, vec, map[string]any{
			"content": "passage " + id,
			"source":  "test",
		})
		if err != nil {
			t.Fatalf("Upsert(%s) error = %v", id, err)
		}
	}

	results, err := store.Search(ctx, "notes", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "doc-1" {
		t.Errorf("best match = %s, want doc-1", results[0].ID)
	}
	if results[0].Content != "passage doc-1" {
		t.Errorf("content = %q", results[0].Content)
	}
	if results[0].Metadata["source"] != "test" {
		t.Errorf("metadata = %v", results[0].Metadata)
	}
}

func TestChromemSearchClampsToCollectionSize(t *testing.T) {
	store, err := NewChromemStore("vector.main", Config{})
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Upsert(ctx, "notes", "only", []float32{1, 0}, nil); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	results, err := store.Search(ctx, "notes", []float32{1, 0}, 50)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestChromemSearchEmptyCollection(t *testing.T) {
	store, err := NewChromemStore("vector.main", Config{})
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	defer store.Close()

	results, err := store.Search(context.Background(), "empty", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty collection", len(results))
	}
}

func TestChromemDelete(t *testing.T) {
	store, err := NewChromemStore("vector.main", Config{})
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Upsert(ctx, "notes", "gone", []float32{1, 0}, nil); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Delete(ctx, "notes", "gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	results, err := store.Search(ctx, "notes", []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("deleted document still returned: %v", results)
	}
}

func TestChromemPersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := NewChromemStore("vector.main", Config{Path: dir})
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}

	ctx := context.Background()
	if err := store.Upsert(ctx, "notes", "kept", []float32{1, 0}, map[string]any{"content": "survives restart"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewChromemStore("vector.main", Config{Path: dir})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	results, err := reopened.Search(ctx, "notes", []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != "kept" {
		t.Errorf("persisted document not found: %v", results)
	}
}
