package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"studytrack/internal/modules/subject/domain"
	subjectout "studytrack/internal/modules/subject/port/out"
	"studytrack/internal/platform/clock"
	apperrors "studytrack/internal/platform/errors"
	"studytrack/internal/platform/logging"
)

// SubjectStore owns the subject list. Every mutation works on a copy, writes
// the whole list back under one key, and only then replaces the in-memory
// state, so a failed write leaves both sides untouched.
type SubjectStore struct {
	mu       sync.Mutex
	clock    clock.Clock
	blobs    subjectout.BlobStore
	key      string
	logger   *logging.Logger
	subjects []domain.Subject

	// lastPayload is the blob as last read or written by this store.
	lastPayload []byte
}

type StopResult struct {
	Subject domain.Subject
	Session domain.Session
	Elapsed float64
}

// NewSubjectStore loads the list stored under key. A missing or unreadable
// value yields an empty store; only a failing blob store is an error.
func NewSubjectStore(ctx context.Context, clock clock.Clock, blobs subjectout.BlobStore, key string, logger *logging.Logger) (*SubjectStore, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &SubjectStore{clock: clock, blobs: blobs, key: key, logger: logger}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.reloadLocked(ctx, true); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the stored list and reports whether it differed from what
// this store last read or wrote. The lock is held across the read so a
// concurrent mutation cannot be rolled back by a stale snapshot.
func (s *SubjectStore) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx, false)
}

func (s *SubjectStore) reloadLocked(ctx context.Context, force bool) (bool, error) {
	raw, err := s.blobs.Get(ctx, s.key)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		raw = nil
	case err != nil:
		return false, fmt.Errorf("read subjects: %w", err)
	}
	if !force && bytes.Equal(raw, s.lastPayload) {
		return false, nil
	}
	s.subjects = s.decode(ctx, raw)
	s.lastPayload = raw
	return true, nil
}

func (s *SubjectStore) decode(ctx context.Context, raw []byte) []domain.Subject {
	if raw == nil {
		return []domain.Subject{}
	}
	var decoded []domain.Subject
	if err := json.Unmarshal(raw, &decoded); err != nil {
		s.logger.Warn(ctx, "stored subjects are malformed, starting empty", zap.String("key", s.key), zap.Error(err))
		return []domain.Subject{}
	}
	subjects, issues := domain.Normalize(decoded)
	for _, issue := range issues {
		s.logger.Warn(ctx, "repaired stored subject", zap.String("issue", issue))
	}
	return subjects
}

func (s *SubjectStore) persist(ctx context.Context, subjects []domain.Subject) error {
	payload, err := json.Marshal(subjects)
	if err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}
	if err := s.blobs.Set(ctx, s.key, payload); err != nil {
		return fmt.Errorf("write subjects: %w", err)
	}
	s.lastPayload = payload
	return nil
}

func (s *SubjectStore) mutate(ctx context.Context, fn func([]domain.Subject) ([]domain.Subject, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(cloneAll(s.subjects))
	if err != nil {
		return err
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.subjects = next
	return nil
}

func (s *SubjectStore) AddSubject(ctx context.Context, name string, hours float64) (domain.Subject, error) {
	subject, err := domain.New(name, hours)
	if err != nil {
		return domain.Subject{}, err
	}
	err = s.mutate(ctx, func(subjects []domain.Subject) ([]domain.Subject, error) {
		if indexOf(subjects, subject.Name) >= 0 {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrDuplicateSubject, subject.Name)
		}
		return append(subjects, subject), nil
	})
	if err != nil {
		return domain.Subject{}, err
	}
	return subject.Clone(), nil
}

func (s *SubjectStore) StartSession(ctx context.Context, name string) (domain.Session, error) {
	var started domain.Session
	err := s.mutateSubject(ctx, name, func(subject *domain.Subject) error {
		var err error
		started, err = subject.Start(s.clock.Now())
		return err
	})
	return started, err
}

func (s *SubjectStore) StopSession(ctx context.Context, name string) (StopResult, error) {
	var result StopResult
	err := s.mutateSubject(ctx, name, func(subject *domain.Subject) error {
		active, _ := subject.ActiveSession()
		now := s.clock.Now()
		session, elapsed, err := subject.Stop(now)
		if err != nil {
			return err
		}
		if now.Before(active.Start) {
			s.logger.Warn(ctx, "session ended before it started, counting zero hours",
				zap.Time("start", active.Start), zap.Time("end", now))
		}
		result = StopResult{Subject: subject.Clone(), Session: session, Elapsed: elapsed}
		return nil
	})
	return result, err
}

func (s *SubjectStore) ResetSubject(ctx context.Context, name string) (domain.Subject, error) {
	var out domain.Subject
	err := s.mutateSubject(ctx, name, func(subject *domain.Subject) error {
		subject.Reset()
		out = subject.Clone()
		return nil
	})
	return out, err
}

func (s *SubjectStore) RecomputeSubject(ctx context.Context, name string) (domain.Subject, error) {
	var out domain.Subject
	err := s.mutateSubject(ctx, name, func(subject *domain.Subject) error {
		subject.Recompute()
		out = subject.Clone()
		return nil
	})
	return out, err
}

// RemoveSubject drops every subject with the name. Removing an unknown name
// succeeds with zero removals and leaves storage untouched.
func (s *SubjectStore) RemoveSubject(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	removed := 0
	err := s.mutate(ctx, func(subjects []domain.Subject) ([]domain.Subject, error) {
		kept := subjects[:0]
		for _, subject := range subjects {
			if subject.Name == name {
				removed++
				continue
			}
			kept = append(kept, subject)
		}
		if removed == 0 {
			return nil, errNothingRemoved
		}
		return kept, nil
	})
	if errors.Is(err, errNothingRemoved) {
		return 0, nil
	}
	return removed, err
}

var errNothingRemoved = errors.New("nothing removed")

// Replace swaps the whole list, repairing it first. It returns the repairs made.
func (s *SubjectStore) Replace(ctx context.Context, subjects []domain.Subject) ([]string, error) {
	normalized, issues := domain.Normalize(subjects)
	err := s.mutate(ctx, func([]domain.Subject) ([]domain.Subject, error) {
		return normalized, nil
	})
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *SubjectStore) List() []domain.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.subjects)
}

func (s *SubjectStore) Get(name string) (domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.subjects, strings.TrimSpace(name))
	if idx < 0 {
		return domain.Subject{}, fmt.Errorf("%w: %q", apperrors.ErrSubjectNotFound, name)
	}
	return s.subjects[idx].Clone(), nil
}

func (s *SubjectStore) Progress(name string) (domain.Progress, error) {
	subject, err := s.Get(name)
	if err != nil {
		return domain.Progress{}, err
	}
	return domain.ComputeProgress(subject)
}

// Now exposes the store clock so callers can render running sessions.
func (s *SubjectStore) Now() time.Time {
	return s.clock.Now()
}

func (s *SubjectStore) mutateSubject(ctx context.Context, name string, fn func(*domain.Subject) error) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: subject name is required", apperrors.ErrInvalidInput)
	}
	return s.mutate(ctx, func(subjects []domain.Subject) ([]domain.Subject, error) {
		idx := indexOf(subjects, name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrSubjectNotFound, name)
		}
		if err := fn(&subjects[idx]); err != nil {
			return nil, err
		}
		return subjects, nil
	})
}

func indexOf(subjects []domain.Subject, name string) int {
	for i, subject := range subjects {
		if subject.Name == name {
			return i
		}
	}
	return -1
}

func cloneAll(subjects []domain.Subject) []domain.Subject {
	out := make([]domain.Subject, len(subjects))
	for i, subject := range subjects {
		out[i] = subject.Clone()
	}
	return out
}
