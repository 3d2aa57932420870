package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	subjectout "studytrack/internal/modules/subject/port/out"
	apperrors "studytrack/internal/platform/errors"
	"studytrack/internal/platform/slug"
)

// FileBlobStore keeps each key in its own file under dir.
type FileBlobStore struct {
	dir string
}

func NewFileBlobStore(dir string) *FileBlobStore {
	return &FileBlobStore{dir: dir}
}

var _ subjectout.BlobStore = (*FileBlobStore)(nil)

func (s *FileBlobStore) Path(key string) string {
	return filepath.Join(s.dir, slug.Make(key)+".json")
}

func (s *FileBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	payload, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return payload, nil
}

// Set writes to a temp file in the same directory and renames it over the
// target, so readers never see a half-written list.
func (s *FileBlobStore) Set(_ context.Context, key string, value []byte) error {
	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp blob: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace blob %s: %w", key, err)
	}
	return nil
}
