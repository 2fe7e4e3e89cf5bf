package player

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/log"
	"github.com/snowlatte/manabi/internal/media"
)

const (
	// defaultReportInterval is how often the session samples and considers
	// emitting a progress event
	defaultReportInterval = 5 * time.Second
	// defaultMinEmitGap is the minimum spacing between emitted progress events
	defaultMinEmitGap = 5 * time.Second
	// completionThreshold marks playback as completed once this fraction of
	// the duration has been watched
	completionThreshold = 0.95
)

// ErrUnsupportedMedia indicates the URL matched neither an embedded platform
// pattern nor a known media file extension
var ErrUnsupportedMedia = errors.New("unsupported media format")

// Media identifies what a session should play
type Media struct {
	// URL is the raw lesson video locator, classified on construction
	URL string
	// DurationHint is the backend-supplied duration in seconds, used as a
	// fallback until the player reports the real one.  0 when unknown.
	DurationHint float64
	// ResumePosition is where playback should resume, in seconds.  Applied
	// exactly once per session, after the duration is confirmed.
	ResumePosition float64
}

// State is the coarse lifecycle state of a session.  Rendering decisions hang
// off this, never off the sampled playback position.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// backend drives one playback engine on behalf of a session.  Backends write
// into the session's sample cell and call its lifecycle hooks; they never
// emit events themselves.
type backend interface {
	// start begins playback.  Must not block beyond process spawn.
	start(ctx context.Context) error

	// sample is invoked synchronously by the reporting loop right before it
	// reads the sample cell.  Poll-driven backends refresh the cell here;
	// event-driven backends treat it as a no-op.
	sample(ctx context.Context)

	// stop tears the backend down.  Called after the reporting loop has
	// stopped.  Safe to call more than once.
	stop()
}

// Session owns playback of a single media URL.  It multiplexes the two
// player backends behind one event stream and guarantees:
//
//   - at most one progress event per report interval while playing, none while paused
//   - exactly one resume seek, applied only once the duration is confirmed
//   - at most one Completed event, after which periodic reporting ceases
//   - teardown stops the reporting loop before releasing the backend, and
//     late backend callbacks after Close are no-ops
//
// A session is single-use: one URL, one Play, one Close.  Switching lessons
// means closing the old session and constructing a new one.
type Session struct {
	cfg   *config.Config
	media Media
	kind  media.Kind

	backend backend
	events  chan PlaybackEvent
	cancel  context.CancelFunc
	done    chan struct{}

	// alive is the session liveness flag.  Flipped to false synchronously at
	// the start of teardown; every asynchronous callback checks it first.
	alive atomic.Bool

	mu            sync.Mutex
	state         State
	currentTime   float64
	duration      float64
	playing       bool
	resumeApplied bool
	readySent     bool
	completedSent bool
	endedSent     bool
	terminal      bool
	closed        bool
	lastEmit      time.Time

	// Overridable in tests to keep them fast
	reportInterval time.Duration
	minEmitGap     time.Duration
}

// NewSession classifies the media URL and constructs a session with the
// matching backend.  Returns ErrUnsupportedMedia when the URL is neither an
// embedded platform link nor a direct media file.
func NewSession(cfg *config.Config, m Media) (*Session, error) {
	kind := media.Classify(m.URL)
	if kind == media.KindUnknown {
		return nil, ErrUnsupportedMedia
	}

	s := &Session{
		cfg:            cfg,
		media:          m,
		kind:           kind,
		events:         make(chan PlaybackEvent, 16),
		done:           make(chan struct{}),
		state:          StateLoading,
		reportInterval: defaultReportInterval,
		minEmitGap:     defaultMinEmitGap,
	}

	b, err := newBackend(cfg, s)
	if err != nil {
		return nil, err
	}
	s.backend = b

	return s, nil
}

// Kind returns the media kind the session was constructed for
func (s *Session) Kind() media.Kind {
	return s.kind
}

// URL returns the raw media URL, for fallback "open externally" affordances
func (s *Session) URL() string {
	return s.media.URL
}

// State returns the coarse session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Play starts the backend and the reporting loop, and returns the channel
// playback events will be delivered on
func (s *Session) Play(ctx context.Context) (<-chan PlaybackEvent, error) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.alive.Store(true)

	log.Info("Starting video session", "kind", s.kind, "url", s.media.URL, "resume", s.media.ResumePosition)

	if err := s.backend.start(ctx); err != nil {
		s.alive.Store(false)
		cancel()
		return nil, err
	}

	go s.reportLoop(ctx)

	return s.events, nil
}

// Close tears the session down: liveness flag first, then the reporting loop,
// then the backend.  Idempotent.
func (s *Session) Close() {
	if !s.alive.CompareAndSwap(true, false) {
		return
	}

	log.Debug("Closing video session", "url", s.media.URL)

	s.mu.Lock()
	s.terminal = true
	s.mu.Unlock()

	// Stop the reporting loop before releasing the backend so that no timer
	// tick can reference a destroyed player
	close(s.done)
	if s.cancel != nil {
		s.cancel()
	}

	s.backend.stop()

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
}

// reportLoop samples playback and emits progress events at a fixed cadence
func (s *Session) reportLoop(ctx context.Context) {
	ticker := time.NewTicker(s.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.alive.Load() {
				return
			}
			// Sampling writes happen-before the cell read below
			s.backend.sample(ctx)
			s.maybeEmitProgress()
		}
	}
}

// maybeEmitProgress emits a progress event if playback is active, the sample
// cell holds a usable position, and the minimum spacing has elapsed
func (s *Session) maybeEmitProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal || s.completedSent || s.closed {
		return
	}
	if !s.playing {
		return
	}
	if s.currentTime <= 0 || s.duration <= 0 {
		return
	}

	now := time.Now()
	if now.Sub(s.lastEmit) < s.minEmitGap {
		return
	}
	s.lastEmit = now

	percent := (s.currentTime / s.duration) * 100
	completed := s.currentTime >= s.duration*completionThreshold

	if completed {
		// Completed is emitted at most once and ends periodic reporting
		s.completedSent = true
		s.terminal = true
	}

	s.emitLocked(PlaybackEvent{
		Type: PlaybackProgress,
		Progress: ProgressUpdate{
			CurrentTime: s.currentTime,
			Duration:    s.duration,
			Percent:     percent,
			Completed:   completed,
		},
	})
}

// emitLocked sends an event to the host.  Callers must hold s.mu.  Events are
// dropped rather than blocking the session if the host stops draining.
func (s *Session) emitLocked(ev PlaybackEvent) {
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		log.Warn("Dropping playback event, host not draining", "type", ev.Type)
	}
}

// --- sample cell and lifecycle hooks, called by backends ---

// confirmDuration records the authoritative duration once known.  The first
// call with a usable duration decides whether a resume seek is needed; the
// returned position must then be applied by the backend exactly once.
func (s *Session) confirmDuration(d float64) (resume float64, seekNeeded bool) {
	if !s.alive.Load() || d <= 0 {
		return 0, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.duration == 0 {
		s.duration = d
		log.Debug("Video duration confirmed", "duration", d)
	}

	if !s.resumeApplied && s.media.ResumePosition > 0 && s.media.ResumePosition < s.duration {
		s.resumeApplied = true
		s.currentTime = s.media.ResumePosition
		return s.media.ResumePosition, true
	}

	return 0, false
}

// observeTime stores the sampled playback position in the cell.  Positions
// are only recorded while playing, and never trigger an emission themselves.
func (s *Session) observeTime(t float64) {
	if !s.alive.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playing || t < 0 {
		return
	}
	s.currentTime = math.Floor(t)
	log.Trace("Sampled playback position", "time", s.currentTime)
}

// setPlaying records the play/pause state in the cell
func (s *Session) setPlaying(playing bool) {
	if !s.alive.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing != playing {
		log.Debug("Play state changed", "playing", playing)
	}
	s.playing = playing
}

// markReady reports that the backend loaded the media.  Emitted once.
func (s *Session) markReady() {
	if !s.alive.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readySent || s.state == StateError {
		return
	}
	s.readySent = true
	s.state = StateReady
	s.emitLocked(PlaybackEvent{Type: PlaybackReady})
}

// fail puts the session into its terminal error state.  Further periodic
// reporting stops; the host renders a fallback affordance.
func (s *Session) fail(reason string) {
	if !s.alive.Load() {
		return
	}

	log.Error("Video session failed", "reason", reason, "url", s.media.URL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateError {
		return
	}
	s.state = StateError
	s.terminal = true
	s.emitLocked(PlaybackEvent{Type: PlaybackError, Err: errors.New(reason)})
}

// endOfMedia handles the media reaching its end: the position is forced to
// the full duration, a single completed progress event is emitted, then the
// ended event, in that order.  Periodic reporting ceases.
func (s *Session) endOfMedia() {
	if !s.alive.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.endedSent {
		return
	}

	d := s.duration
	if d == 0 {
		d = s.media.DurationHint
	}

	s.terminal = true
	s.playing = false

	if d > 0 {
		s.currentTime = d
		if !s.completedSent {
			s.completedSent = true
			s.emitLocked(PlaybackEvent{
				Type: PlaybackProgress,
				Progress: ProgressUpdate{
					CurrentTime: d,
					Duration:    d,
					Percent:     100,
					Completed:   true,
				},
			})
		}
	}

	s.endedSent = true
	s.emitLocked(PlaybackEvent{Type: PlaybackEnded})
}

// dismissed handles the player going away before the media ended, for example
// the user closing the player window.  No completion is implied.
func (s *Session) dismissed() {
	if !s.alive.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.endedSent || s.terminal {
		return
	}
	s.terminal = true
	s.playing = false
	s.emitLocked(PlaybackEvent{Type: PlaybackClosed})
}
