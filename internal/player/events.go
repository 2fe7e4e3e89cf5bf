package player

// PlaybackEventType represents the type of playback event
type PlaybackEventType string

const (
	// PlaybackReady indicates the backend has loaded the media and playback can begin
	PlaybackReady PlaybackEventType = "ready"
	// PlaybackProgress indicates a periodic progress report
	PlaybackProgress PlaybackEventType = "progress"
	// PlaybackEnded indicates the media reached its end
	PlaybackEnded PlaybackEventType = "ended"
	// PlaybackClosed indicates the player went away before the media ended
	PlaybackClosed PlaybackEventType = "closed"
	// PlaybackError indicates an error during loading or playback
	PlaybackError PlaybackEventType = "error"
)

// ProgressUpdate is the normalized progress report crossing the session boundary.
// Percent is 0 while the duration is unknown.
type ProgressUpdate struct {
	CurrentTime float64
	Duration    float64
	Percent     float64
	Completed   bool
}

// PlaybackEvent represents an event from a video session
type PlaybackEvent struct {
	Type     PlaybackEventType
	Progress ProgressUpdate // Populated when Type is PlaybackProgress
	Err      error          // Populated when Type is PlaybackError
}
