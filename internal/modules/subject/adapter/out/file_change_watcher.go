package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	subjectout "studytrack/internal/modules/subject/port/out"
)

// FileChangeWatcher calls back when the watched file is created, written or
// renamed into place. It watches the parent directory because atomic saves
// replace the file rather than write to it.
type FileChangeWatcher struct {
	path string
}

var _ subjectout.ChangeWatcher = (*FileChangeWatcher)(nil)

func NewFileChangeWatcher(path string) *FileChangeWatcher {
	return &FileChangeWatcher{path: path}
}

// Watch blocks until ctx is cancelled or the watcher fails.
func (w *FileChangeWatcher) Watch(ctx context.Context, onChange func()) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", w.path, err)
		}
	}
}
