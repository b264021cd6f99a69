// File path: internal/catalog/store_test.go
package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "catalog.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	count, err := store.BatchCount(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected an empty catalog, got %d batches", count)
	}
}

func TestLastBatchEmpty(t *testing.T) {
	store := openTestStore(t)
	batch, err := store.LastBatch(context.Background())
	if err != nil {
		t.Fatalf("last batch: %v", err)
	}
	if batch != nil {
		t.Fatalf("expected nil for an empty catalog, got %+v", batch)
	}
}

func TestRecordAndLoadBatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.RecordBatch(ctx, Batch{
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Documents: 10,
		Chunks:    14,
		QAPairs:   8,
		Files: []FileResult{
			{FileName: "faq.csv", DocumentType: "csv", Records: 8},
			{FileName: "broken.pdf", DocumentType: "pdf", Error: "corrupt pdf"},
		},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a batch id")
	}

	batch, err := store.LastBatch(ctx)
	if err != nil {
		t.Fatalf("last batch: %v", err)
	}
	if batch == nil {
		t.Fatal("expected a batch")
	}
	if batch.Documents != 10 || batch.Chunks != 14 || batch.QAPairs != 8 {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if len(batch.Files) != 2 {
		t.Fatalf("expected 2 file results, got %d", len(batch.Files))
	}
	if batch.Files[0].FileName != "faq.csv" || batch.Files[0].Records != 8 {
		t.Fatalf("unexpected first file %+v", batch.Files[0])
	}
	if batch.Files[1].Error != "corrupt pdf" {
		t.Fatalf("expected the per-file error to round-trip, got %q", batch.Files[1].Error)
	}
}

func TestLastBatchIsMostRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if _, err := store.RecordBatch(ctx, Batch{Documents: 1}); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if _, err := store.RecordBatch(ctx, Batch{Documents: 2}); err != nil {
		t.Fatalf("record second: %v", err)
	}
	batch, err := store.LastBatch(ctx)
	if err != nil {
		t.Fatalf("last batch: %v", err)
	}
	if batch.Documents != 2 {
		t.Fatalf("expected the most recent batch, got %+v", batch)
	}
	count, err := store.BatchCount(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 batches, got %d", count)
	}
}

func TestClosedStoreErrors(t *testing.T) {
	var store *Store
	if _, err := store.RecordBatch(context.Background(), Batch{}); err == nil {
		t.Fatal("expected an error from a nil store")
	}
	if _, err := store.LastBatch(context.Background()); err == nil {
		t.Fatal("expected an error from a nil store")
	}
}
