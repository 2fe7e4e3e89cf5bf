// Package progress turns the raw stream of playback positions into a small
// number of display updates and an even smaller number of persisted writes.
package progress

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/log"
)

const (
	// defaultDisplayInterval throttles how often the in-memory snapshot moves
	defaultDisplayInterval = 2 * time.Second
	// defaultWriteInterval debounces persisted writes
	defaultWriteInterval = 5 * time.Second
	// writeTimeout bounds a single persistence attempt
	writeTimeout = 10 * time.Second
)

// Snapshot is the reporter's current view of lesson progress, for rendering
type Snapshot struct {
	WatchedSeconds int
	Percent        int
	Completed      bool
}

// Reporter consumes progress updates for one lesson and persists them through
// a ProgressRepository.  It guarantees:
//
//   - the display snapshot moves at most once per display interval, except a
//     completion which always lands immediately
//   - persisted writes are debounced: a burst of updates inside the write
//     window collapses into one write carrying the last values
//   - a completion bypasses the debounce and is written without delay
//   - failed writes are logged and swallowed; the snapshot keeps the
//     optimistic values and the next report repairs the record
//
// One reporter per lesson session.  Close flushes any pending write so
// progress gathered just before leaving a lesson is not lost.
type Reporter struct {
	store        domain.ProgressRepository
	lessonID     int
	durationHint float64

	mu                sync.Mutex
	watched           int
	percent           int
	completed         bool
	lastDisplay       time.Time
	lastWrite         time.Time
	pending           *time.Timer
	pendingWatched    int
	pendingCompleted  bool
	lastKnownDuration float64
	closed            bool

	// Overridable in tests
	displayInterval time.Duration
	writeInterval   time.Duration
}

// NewReporter creates a reporter for one lesson.  durationHint is the
// backend-supplied duration, used when playback ends before the player ever
// reported one.
func NewReporter(store domain.ProgressRepository, lessonID int, durationHint float64) *Reporter {
	return &Reporter{
		store:           store,
		lessonID:        lessonID,
		durationHint:    durationHint,
		displayInterval: defaultDisplayInterval,
		writeInterval:   defaultWriteInterval,
	}
}

// Report feeds one sampled playback position into the reporter
func (r *Reporter) Report(currentTime, duration float64, completed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if duration > 0 {
		r.lastKnownDuration = duration
	}

	now := time.Now()

	// Display throttle.  A completion always updates immediately.
	if completed || now.Sub(r.lastDisplay) >= r.displayInterval {
		r.lastDisplay = now
		r.watched = int(math.Floor(currentTime))
		if duration > 0 {
			pct := int(math.Round(currentTime / duration * 100))
			if pct > 100 {
				pct = 100
			}
			r.percent = pct
		}
		if completed {
			r.completed = true
		}
	}

	// A newer value supersedes whatever write was still pending
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}

	// Persistence gate: only schedule a write when the spacing has elapsed or
	// a completion forces one through
	if !completed && now.Sub(r.lastWrite) < r.writeInterval {
		return
	}

	watched := int(math.Floor(currentTime))
	delay := r.writeInterval
	if completed {
		delay = 0
	}
	r.pendingWatched = watched
	r.pendingCompleted = completed
	r.pending = time.AfterFunc(delay, func() {
		r.write(watched, completed)
	})
}

// ReportEnded records the lesson as fully watched.  Used when the media ends
// without a final position sample.
func (r *Reporter) ReportEnded() {
	r.mu.Lock()
	d := r.lastKnownDuration
	r.mu.Unlock()

	if d == 0 {
		d = r.durationHint
	}
	if d == 0 {
		log.Warn("Lesson ended with unknown duration, skipping completion report", "lesson_id", r.lessonID)
		return
	}
	r.Report(d, d, true)
}

// write performs the actual persisted write.  Either the debounce timer or
// Close calls it, never both for the same scheduled values: Close only writes
// when it stopped the timer before it fired.
func (r *Reporter) write(watched int, completed bool) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	log.Debug("Persisting lesson progress", "lesson_id", r.lessonID, "watched", watched, "completed", completed)

	if err := r.store.UpdateLessonProgress(ctx, r.lessonID, watched, completed); err != nil {
		// Swallowed: the next periodic report repairs the record
		log.Warn("Failed to persist lesson progress", "lesson_id", r.lessonID, "error", err)
		return
	}

	r.mu.Lock()
	r.lastWrite = time.Now()
	r.mu.Unlock()
}

// Snapshot returns the current display values
func (r *Reporter) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		WatchedSeconds: r.watched,
		Percent:        r.percent,
		Completed:      r.completed,
	}
}

// Close flushes any pending write synchronously, best effort, so progress
// gathered in the final debounce window survives leaving the lesson.  No
// further reports are accepted.
func (r *Reporter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true

	flushNow := false
	watched, completed := r.pendingWatched, r.pendingCompleted
	if r.pending != nil {
		// Stop reports whether the timer was still waiting; if it already
		// fired the write is the callback's responsibility
		flushNow = r.pending.Stop()
		r.pending = nil
	}
	r.mu.Unlock()

	if flushNow {
		r.write(watched, completed)
	}
}
