package out_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	subjectout "studytrack/internal/modules/subject/adapter/out"
)

func TestFileChangeWatcherSeesAtomicReplace(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := subjectout.NewFileBlobStore(dir)
	watcher := subjectout.NewFileChangeWatcher(store.Path("subjects"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, func() { changed <- struct{}{} })
	}()

	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-changed:
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("watch returned error: %v", err)
			}
			return
		case <-ticker.C:
			// The watcher may not be registered yet on the first writes.
			if err := store.Set(context.Background(), "subjects", []byte("[]")); err != nil {
				t.Fatalf("set: %v", err)
			}
		case <-deadline:
			t.Fatalf("no change event for %s", filepath.Base(store.Path("subjects")))
		}
	}
}
