package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	subjectout "studytrack/internal/modules/subject/adapter/out"
	portout "studytrack/internal/modules/subject/port/out"
	"studytrack/internal/platform/clock"
	apperrors "studytrack/internal/platform/errors"
)

func blobStores(t *testing.T) map[string]portout.BlobStore {
	t.Helper()
	dir := t.TempDir()
	sqliteStore, err := subjectout.NewSQLiteBlobStore(filepath.Join(dir, "db", "studytrack.db"), clock.Fixed(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close() })
	return map[string]portout.BlobStore{
		"file":   subjectout.NewFileBlobStore(filepath.Join(dir, "files")),
		"sqlite": sqliteStore,
		"memory": subjectout.NewMemoryBlobStore(),
	}
}

func TestBlobStoresGetSetContract(t *testing.T) {
	t.Parallel()
	for name, store := range blobStores(t) {
		ctx := context.Background()
		if _, err := store.Get(ctx, "subjects"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("%s: expected not found for absent key, got %v", name, err)
		}
		if err := store.Set(ctx, "subjects", []byte(`[{"name":"Math"}]`)); err != nil {
			t.Fatalf("%s: set: %v", name, err)
		}
		if err := store.Set(ctx, "subjects", []byte(`[]`)); err != nil {
			t.Fatalf("%s: overwrite: %v", name, err)
		}
		got, err := store.Get(ctx, "subjects")
		if err != nil {
			t.Fatalf("%s: get: %v", name, err)
		}
		if string(got) != "[]" {
			t.Fatalf("%s: expected overwritten value, got %s", name, got)
		}
		if _, err := store.Get(ctx, "other"); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("%s: keys must be independent, got %v", name, err)
		}
	}
}

func TestFileBlobStoreLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := subjectout.NewFileBlobStore(dir)
	for i := 0; i < 3; i++ {
		if err := store.Set(context.Background(), "subjects", []byte("[]")); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "subjects.json" {
		t.Fatalf("unexpected files: %v", entries)
	}
	if store.Path("subjects") != filepath.Join(dir, "subjects.json") {
		t.Fatalf("unexpected path %s", store.Path("subjects"))
	}
}

func TestMemoryBlobStoreFailSet(t *testing.T) {
	t.Parallel()
	store := subjectout.NewMemoryBlobStore()
	store.FailSet = errors.New("disk full")
	if err := store.Set(context.Background(), "k", []byte("v")); err == nil {
		t.Fatalf("expected injected failure")
	}
	if _, err := store.Get(context.Background(), "k"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("failed set must not store, got %v", err)
	}
}
