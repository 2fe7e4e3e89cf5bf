package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressWrite struct {
	lessonID  int
	watched   int
	completed bool
}

// recordingStore captures progress writes and can be told to fail
type recordingStore struct {
	mu     sync.Mutex
	writes []progressWrite
	err    error
	notify chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{notify: make(chan struct{}, 16)}
}

func (s *recordingStore) UpdateLessonProgress(ctx context.Context, lessonID, watchedSeconds int, completed bool) error {
	s.mu.Lock()
	err := s.err
	if err == nil {
		s.writes = append(s.writes, progressWrite{lessonID, watchedSeconds, completed})
	}
	s.mu.Unlock()
	s.notify <- struct{}{}
	return err
}

func (s *recordingStore) all() []progressWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]progressWrite(nil), s.writes...)
}

func (s *recordingStore) waitForWrite(t *testing.T) {
	t.Helper()
	select {
	case <-s.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a progress write")
	}
}

func newTestReporter(store *recordingStore, lessonID int, hint float64) *Reporter {
	r := NewReporter(store, lessonID, hint)
	r.displayInterval = 20 * time.Millisecond
	r.writeInterval = 30 * time.Millisecond
	return r
}

func TestBurstCollapsesIntoOneWrite(t *testing.T) {
	store := newRecordingStore()
	r := newTestReporter(store, 7, 0)
	defer r.Close()

	// Five rapid reports inside the write window
	for _, pos := range []float64{10, 11, 12, 13, 14} {
		r.Report(pos, 300, false)
	}

	store.waitForWrite(t)
	// Give a stray second write a chance to land, then assert it did not
	time.Sleep(100 * time.Millisecond)

	writes := store.all()
	require.Len(t, writes, 1)
	assert.Equal(t, progressWrite{lessonID: 7, watched: 14, completed: false}, writes[0])
}

func TestCompletedBypassesDebounce(t *testing.T) {
	store := newRecordingStore()
	r := newTestReporter(store, 3, 0)
	r.writeInterval = time.Hour
	defer r.Close()

	start := time.Now()
	r.Report(290, 300, true)
	store.waitForWrite(t)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	writes := store.all()
	require.Len(t, writes, 1)
	assert.Equal(t, progressWrite{lessonID: 3, watched: 290, completed: true}, writes[0])
}

func TestDisplayThrottle(t *testing.T) {
	store := newRecordingStore()
	r := newTestReporter(store, 1, 0)
	r.displayInterval = time.Hour
	defer r.Close()

	r.Report(60, 300, false)
	snap := r.Snapshot()
	assert.Equal(t, 60, snap.WatchedSeconds)
	assert.Equal(t, 20, snap.Percent)

	// Inside the throttle window the snapshot does not move
	r.Report(62, 300, false)
	snap = r.Snapshot()
	assert.Equal(t, 60, snap.WatchedSeconds)

	// A completion lands immediately regardless
	r.Report(300, 300, true)
	snap = r.Snapshot()
	assert.Equal(t, 300, snap.WatchedSeconds)
	assert.Equal(t, 100, snap.Percent)
	assert.True(t, snap.Completed)
}

func TestPercentCappedAtHundred(t *testing.T) {
	store := newRecordingStore()
	r := newTestReporter(store, 1, 0)
	defer r.Close()

	r.Report(310, 300, false)
	assert.Equal(t, 100, r.Snapshot().Percent)
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	store := newRecordingStore()
	store.err = errors.New("network down")
	r := newTestReporter(store, 5, 0)
	defer r.Close()

	r.Report(45, 300, false)
	store.waitForWrite(t)

	// The optimistic snapshot survives the failed write
	snap := r.Snapshot()
	assert.Equal(t, 45, snap.WatchedSeconds)
	assert.Empty(t, store.all())

	// Once the store recovers, the next report repairs the record.  The failed
	// write never advanced the spacing clock, so this schedules immediately.
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()

	r.Report(50, 300, false)
	store.waitForWrite(t)

	writes := store.all()
	require.Len(t, writes, 1)
	assert.Equal(t, 50, writes[0].watched)
}

func TestReportEndedFallsBackToHint(t *testing.T) {
	store := newRecordingStore()
	r := newTestReporter(store, 9, 240)
	defer r.Close()

	// No Report call ever delivered a duration
	r.ReportEnded()
	store.waitForWrite(t)

	writes := store.all()
	require.Len(t, writes, 1)
	assert.Equal(t, progressWrite{lessonID: 9, watched: 240, completed: true}, writes[0])
}

func TestReportEndedPrefersKnownDuration(t *testing.T) {
	store := newRecordingStore()
	r := newTestReporter(store, 9, 240)
	r.writeInterval = time.Hour
	defer r.Close()

	r.Report(100, 600, false)
	r.ReportEnded()
	store.waitForWrite(t)

	writes := store.all()
	require.Len(t, writes, 1)
	assert.Equal(t, progressWrite{lessonID: 9, watched: 600, completed: true}, writes[0])
}

func TestReportEndedWithNoDurationWritesNothing(t *testing.T) {
	store := newRecordingStore()
	r := newTestReporter(store, 9, 0)
	defer r.Close()

	r.ReportEnded()
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, store.all())
}

func TestCloseFlushesPendingWrite(t *testing.T) {
	store := newRecordingStore()
	r := newTestReporter(store, 2, 0)
	r.writeInterval = time.Hour

	// The debounced write is still pending when the lesson is left; Close
	// flushes it instead of discarding the final window of progress
	r.Report(20, 300, false)
	r.Close()

	writes := store.all()
	require.Len(t, writes, 1)
	assert.Equal(t, 20, writes[0].watched)
	assert.False(t, writes[0].completed)

	// Reports after Close are ignored
	r.Report(25, 300, false)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, store.all(), 1)
}

func TestCloseWithNothingPendingWritesNothing(t *testing.T) {
	store := newRecordingStore()
	r := newTestReporter(store, 2, 0)

	r.Close()
	assert.Empty(t, store.all())
}
