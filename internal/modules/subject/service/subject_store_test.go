package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	subjectout "studytrack/internal/modules/subject/adapter/out"
	"studytrack/internal/modules/subject/domain"
	"studytrack/internal/modules/subject/service"
	apperrors "studytrack/internal/platform/errors"
	"studytrack/internal/platform/logging"
)

const key = "subjects"

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*service.SubjectStore, *subjectout.MemoryBlobStore, *stepClock) {
	t.Helper()
	blobs := subjectout.NewMemoryBlobStore()
	clk := &stepClock{now: t0}
	store, err := service.NewSubjectStore(context.Background(), clk, blobs, key, nil)
	require.NoError(t, err)
	return store, blobs, clk
}

func persisted(t *testing.T, blobs *subjectout.MemoryBlobStore) []domain.Subject {
	t.Helper()
	raw, err := blobs.Get(context.Background(), key)
	require.NoError(t, err)
	var out []domain.Subject
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestAddSubjectThenLookup(t *testing.T) {
	t.Parallel()
	store, blobs, _ := newStore(t)
	ctx := context.Background()

	for _, tc := range []struct {
		name  string
		hours float64
	}{{"Math", 10}, {"Physics", 0.5}, {"  Chemistry ", 3}} {
		_, err := store.AddSubject(ctx, tc.name, tc.hours)
		require.NoError(t, err)
	}

	got, err := store.Get("Chemistry")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.StudiedHours)
	assert.Empty(t, got.Sessions)
	assert.Len(t, persisted(t, blobs), 3)
}

func TestAddSubjectInvalidInputLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()
	store, blobs, _ := newStore(t)
	ctx := context.Background()
	_, err := store.AddSubject(ctx, "Math", 10)
	require.NoError(t, err)
	before, _ := blobs.Get(ctx, key)

	for _, tc := range []struct {
		name  string
		hours float64
	}{{"", 5}, {"   ", 5}, {"Bio", 0}, {"Bio", -1}} {
		_, err := store.AddSubject(ctx, tc.name, tc.hours)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
	_, err = store.AddSubject(ctx, "Math", 4)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateSubject)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	after, _ := blobs.Get(ctx, key)
	assert.Equal(t, before, after)
	assert.Len(t, store.List(), 1)
}

func TestStartStopAddsElapsedHours(t *testing.T) {
	t.Parallel()
	store, blobs, clk := newStore(t)
	ctx := context.Background()
	_, err := store.AddSubject(ctx, "Math", 10)
	require.NoError(t, err)

	started, err := store.StartSession(ctx, "Math")
	require.NoError(t, err)
	assert.True(t, started.Open())
	assert.Nil(t, persisted(t, blobs)[0].Sessions[0].End)

	d := 2_700_000 * time.Millisecond
	clk.Advance(d)
	result, err := store.StopSession(ctx, "Math")
	require.NoError(t, err)
	assert.InDelta(t, float64(d.Milliseconds())/3_600_000, result.Elapsed, 1e-12)
	assert.InDelta(t, 0.75, result.Subject.StudiedHours, 1e-12)
	require.NotNil(t, result.Session.End)
	assert.True(t, result.Session.End.Equal(t0.Add(d)))

	stored := persisted(t, blobs)[0]
	require.NotNil(t, stored.Sessions[0].End)
	assert.InDelta(t, 0.75, stored.StudiedHours, 1e-12)
}

func TestStartSessionRejectsDoubleStartAndUnknownSubject(t *testing.T) {
	t.Parallel()
	store, _, _ := newStore(t)
	ctx := context.Background()
	_, _ = store.AddSubject(ctx, "Math", 10)

	_, err := store.StartSession(ctx, "Math")
	require.NoError(t, err)
	_, err = store.StartSession(ctx, "Math")
	assert.ErrorIs(t, err, apperrors.ErrActiveSessionExists)

	_, err = store.StartSession(ctx, "History")
	assert.ErrorIs(t, err, apperrors.ErrSubjectNotFound)
	_, err = store.StartSession(ctx, " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	got, _ := store.Get("Math")
	assert.Len(t, got.Sessions, 1)
}

func TestStopWithoutOpenSessionLeavesStateUnchanged(t *testing.T) {
	t.Parallel()
	store, blobs, clk := newStore(t)
	ctx := context.Background()
	_, _ = store.AddSubject(ctx, "Math", 10)

	before, _ := blobs.Get(ctx, key)
	_, err := store.StopSession(ctx, "Math")
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSession)

	_, _ = store.StartSession(ctx, "Math")
	clk.Advance(time.Hour)
	_, err = store.StopSession(ctx, "Math")
	require.NoError(t, err)
	afterStop, _ := blobs.Get(ctx, key)
	_, err = store.StopSession(ctx, "Math")
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSession)
	afterSecond, _ := blobs.Get(ctx, key)

	assert.NotEqual(t, before, afterStop)
	assert.Equal(t, afterStop, afterSecond)

	_, err = store.StopSession(ctx, "Nope")
	assert.ErrorIs(t, err, apperrors.ErrSubjectNotFound)
}

func TestResetClearsHistory(t *testing.T) {
	t.Parallel()
	store, blobs, clk := newStore(t)
	ctx := context.Background()
	_, _ = store.AddSubject(ctx, "Math", 10)
	for i := 0; i < 3; i++ {
		_, _ = store.StartSession(ctx, "Math")
		clk.Advance(20 * time.Minute)
		_, _ = store.StopSession(ctx, "Math")
	}
	_, _ = store.StartSession(ctx, "Math")

	reset, err := store.ResetSubject(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, 0.0, reset.StudiedHours)
	assert.Empty(t, reset.Sessions)
	assert.Equal(t, 0.0, persisted(t, blobs)[0].StudiedHours)

	_, err = store.ResetSubject(ctx, "Nope")
	assert.ErrorIs(t, err, apperrors.ErrSubjectNotFound)
}

func TestRemoveSubject(t *testing.T) {
	t.Parallel()
	store, blobs, _ := newStore(t)
	ctx := context.Background()
	_, _ = store.AddSubject(ctx, "Math", 10)
	_, _ = store.AddSubject(ctx, "Physics", 5)

	removed, err := store.RemoveSubject(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = store.Get("Math")
	assert.ErrorIs(t, err, apperrors.ErrSubjectNotFound)
	_, err = store.StartSession(ctx, "Math")
	assert.ErrorIs(t, err, apperrors.ErrSubjectNotFound)

	stored := persisted(t, blobs)
	require.Len(t, stored, 1)
	assert.Equal(t, "Physics", stored[0].Name)

	removed, err = store.RemoveSubject(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestReloadRoundTripsFieldForField(t *testing.T) {
	t.Parallel()
	store, blobs, clk := newStore(t)
	ctx := context.Background()
	_, _ = store.AddSubject(ctx, "Math", 10)
	_, _ = store.AddSubject(ctx, "Physics", 2.5)
	_, _ = store.AddSubject(ctx, "Art", 1)
	_, _ = store.StartSession(ctx, "Math")
	clk.Advance(90 * time.Minute)
	_, _ = store.StopSession(ctx, "Math")
	_, _ = store.StartSession(ctx, "Physics")
	clk.Advance(10 * time.Minute)
	_, _ = store.RemoveSubject(ctx, "Art")

	reloaded, err := service.NewSubjectStore(ctx, clk, blobs, key, nil)
	require.NoError(t, err)
	assert.Equal(t, store.List(), reloaded.List())
}

// gatedBlobs blocks the next Get after arm until release is closed.
type gatedBlobs struct {
	*subjectout.MemoryBlobStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.MemoryBlobStore.Get(ctx, key)
}

func TestReloadDoesNotRollBackConcurrentMutation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	blobs := &gatedBlobs{
		MemoryBlobStore: subjectout.NewMemoryBlobStore(),
		entered:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	store, err := service.NewSubjectStore(ctx, &stepClock{now: t0}, blobs, key, nil)
	require.NoError(t, err)
	_, err = store.AddSubject(ctx, "Math", 10)
	require.NoError(t, err)

	blobs.armed.Store(true)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, reloadErr := store.Reload(ctx)
		assert.NoError(t, reloadErr)
	}()
	<-blobs.entered
	go func() {
		defer wg.Done()
		_, startErr := store.StartSession(ctx, "Math")
		assert.NoError(t, startErr)
	}()
	// Give the start a chance to race the in-flight read.
	time.Sleep(20 * time.Millisecond)
	close(blobs.release)
	wg.Wait()

	_, err = store.AddSubject(ctx, "Physics", 5)
	require.NoError(t, err)

	stored := persisted(t, blobs.MemoryBlobStore)
	require.Len(t, stored, 2)
	require.Len(t, stored[0].Sessions, 1)
	assert.True(t, stored[0].IsActive())
}

func TestReloadReportsOnlyExternalChanges(t *testing.T) {
	t.Parallel()
	store, blobs, _ := newStore(t)
	ctx := context.Background()
	_, err := store.AddSubject(ctx, "Math", 10)
	require.NoError(t, err)

	changed, err := store.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "own write must not count as an external change")

	raw := []byte(`[{"name":"Chem","allottedHours":4,"studiedHours":1,"sessions":[]}]`)
	require.NoError(t, blobs.Set(ctx, key, raw))
	changed, err = store.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	got, err := store.Get("Chem")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.StudiedHours)

	changed, err = store.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestProgressScenario(t *testing.T) {
	t.Parallel()
	store, _, clk := newStore(t)
	ctx := context.Background()
	_, err := store.AddSubject(ctx, "Math", 10)
	require.NoError(t, err)
	_, err = store.StartSession(ctx, "Math")
	require.NoError(t, err)
	clk.Advance(90 * time.Minute)
	result, err := store.StopSession(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, 1.5, result.Elapsed)

	progress, err := store.Progress("Math")
	require.NoError(t, err)
	assert.InDelta(t, 15, progress.Percentage, 1e-9)
	assert.Equal(t, 15, progress.Rounded)
	assert.InDelta(t, 8.5, progress.RemainingHours, 1e-9)
}

func TestFailedPersistDoesNotMutateMemory(t *testing.T) {
	t.Parallel()
	store, blobs, _ := newStore(t)
	ctx := context.Background()
	_, _ = store.AddSubject(ctx, "Math", 10)

	blobs.FailSet = errors.New("disk full")
	_, err := store.StartSession(ctx, "Math")
	require.Error(t, err)
	_, err = store.AddSubject(ctx, "Physics", 1)
	require.Error(t, err)

	got, _ := store.Get("Math")
	assert.Empty(t, got.Sessions)
	assert.Len(t, store.List(), 1)
}

func TestLoadFailsClosedOnMalformedBlob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for _, raw := range []string{"{not json", "null", `{"name":"Math"}`, ""} {
		blobs := subjectout.NewMemoryBlobStore()
		require.NoError(t, blobs.Set(ctx, key, []byte(raw)))
		logger := logging.NewTestLogger()
		store, err := service.NewSubjectStore(ctx, &stepClock{now: t0}, blobs, key, logger.Logger)
		require.NoError(t, err, raw)
		assert.Empty(t, store.List(), raw)
	}
}

func TestLoadRepairsCorruptedEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	blobs := subjectout.NewMemoryBlobStore()
	raw := `[
 {"name":"Math","allottedHours":10,"studiedHours":1,"sessions":[{"start":"2026-03-01T09:00:00.000Z","end":null},{"start":"2026-03-01T10:00:00.000Z","end":null}]},
 {"name":"Math","allottedHours":4,"studiedHours":0,"sessions":[]},
 {"name":"Zero","allottedHours":0,"studiedHours":0,"sessions":[]}
]`
	require.NoError(t, blobs.Set(ctx, key, []byte(raw)))
	logger := logging.NewTestLogger()
	clk := &stepClock{now: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)}

	store, err := service.NewSubjectStore(ctx, clk, blobs, key, logger.Logger)
	require.NoError(t, err)
	logger.AssertLogged(t, zapcore.WarnLevel, "repaired stored subject")

	list := store.List()
	require.Len(t, list, 1)
	math := list[0]
	assert.False(t, math.Sessions[0].Open())
	assert.True(t, math.Sessions[1].Open())

	result, err := store.StopSession(ctx, "Math")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.Elapsed, 1e-12)
	assert.InDelta(t, 1.5, result.Subject.StudiedHours, 1e-12)
}

func TestBackwardsClockIsClampedAndLogged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	logger := logging.NewTestLogger()
	clk := &stepClock{now: t0}
	store, err := service.NewSubjectStore(ctx, clk, subjectout.NewMemoryBlobStore(), key, logger.Logger)
	require.NoError(t, err)
	_, _ = store.AddSubject(ctx, "Math", 10)
	_, _ = store.StartSession(ctx, "Math")
	clk.Advance(-time.Hour)

	result, err := store.StopSession(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Elapsed)
	assert.Equal(t, 0.0, result.Subject.StudiedHours)
	logger.AssertLogged(t, zapcore.WarnLevel, "ended before it started")
}

func TestRecomputeAndReplace(t *testing.T) {
	t.Parallel()
	store, blobs, _ := newStore(t)
	ctx := context.Background()
	end := t0.Add(2 * time.Hour)
	issues, err := store.Replace(ctx, []domain.Subject{
		{Name: "Math", AllottedHours: 10, StudiedHours: 7, Sessions: []domain.Session{{Start: t0, End: &end}}},
		{Name: "Math", AllottedHours: 3},
	})
	require.NoError(t, err)
	assert.Len(t, issues, 1)
	assert.Len(t, persisted(t, blobs), 1)

	subject, err := store.RecomputeSubject(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, 2.0, subject.StudiedHours)
}
