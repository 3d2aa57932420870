package out

import (
	"context"
	"sync"

	subjectout "studytrack/internal/modules/subject/port/out"
	apperrors "studytrack/internal/platform/errors"
)

type MemoryBlobStore struct {
	mu     sync.Mutex
	values map[string][]byte
	// FailSet, when non-nil, is returned by Set without storing anything.
	FailSet error
}

var _ subjectout.BlobStore = (*MemoryBlobStore)(nil)

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{values: map[string][]byte{}}
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryBlobStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet != nil {
		return s.FailSet
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}
