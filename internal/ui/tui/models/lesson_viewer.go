package models

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/log"
	"github.com/snowlatte/manabi/internal/player"
	"github.com/snowlatte/manabi/internal/progress"
	"github.com/snowlatte/manabi/internal/ui/tui/keybindings"
	"github.com/snowlatte/manabi/internal/ui/tui/styles"
	"github.com/snowlatte/manabi/internal/ui/tui/util"
)

// LessonViewerModel hosts playback of a single lesson: it owns the video
// session and the progress reporter, translates session events into reporter
// calls, and renders the playback state
type LessonViewerModel struct {
	config        *config.Config
	progressRepo  domain.ProgressRepository
	width, height int

	course *domain.Course
	lesson domain.Lesson

	session  *player.Session
	events   <-chan player.PlaybackEvent
	reporter *progress.Reporter

	ready             bool
	ended             bool
	completedReported bool
	playbackError     string
}

func NewLessonViewerModel(cfg *config.Config, progressRepo domain.ProgressRepository) *LessonViewerModel {
	return &LessonViewerModel{
		config:       cfg,
		progressRepo: progressRepo,
	}
}

func (m *LessonViewerModel) Init() tea.Cmd {
	return nil
}

func (m *LessonViewerModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// Open starts playback of a lesson.  Any previous session is torn down first.
func (m *LessonViewerModel) Open(course *domain.Course, lesson domain.Lesson) tea.Cmd {
	m.closeSession()

	m.course = course
	m.lesson = lesson
	m.ready = false
	m.ended = false
	m.completedReported = false
	m.playbackError = ""

	media := player.Media{
		URL:          lesson.VideoURL,
		DurationHint: float64(lesson.DurationSeconds),
	}
	// Resume from the saved position unless the lesson was already finished
	if lesson.Progress != nil && !lesson.Progress.Completed {
		media.ResumePosition = float64(lesson.Progress.WatchedSeconds)
	}

	session, err := player.NewSession(m.config, media)
	if err != nil {
		log.Warn("Cannot play lesson", "lesson_id", lesson.ID, "url", lesson.VideoURL, "error", err)
		m.playbackError = err.Error()
		return nil
	}

	events, err := session.Play(context.Background())
	if err != nil {
		log.Error("Failed to start playback", "lesson_id", lesson.ID, "error", err)
		m.playbackError = err.Error()
		return nil
	}

	m.session = session
	m.events = events
	m.reporter = progress.NewReporter(m.progressRepo, lesson.ID, float64(lesson.DurationSeconds))

	log.Info("Lesson playback started", "lesson_id", lesson.ID, "title", lesson.Title)

	return m.waitForPlayerEvent()
}

// waitForPlayerEvent blocks on the session's event channel and feeds the next
// event back into the update loop
func (m *LessonViewerModel) waitForPlayerEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return PlaybackSessionDoneMsg{}
		}
		return PlaybackEventMsg{Event: event}
	}
}

func (m *LessonViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch keybindings.GetActionByKey(msg, keybindings.ContextLessonViewer) {
		case keybindings.ActionStopPlayback:
			return m, m.leave()
		}

	case PlaybackEventMsg:
		return m.handlePlaybackEvent(msg.Event)

	case PlaybackSessionDoneMsg:
		// Channel closed: the session is gone, return to the course view
		return m, m.leave()
	}

	return m, nil
}

func (m *LessonViewerModel) handlePlaybackEvent(event player.PlaybackEvent) (tea.Model, tea.Cmd) {
	switch event.Type {
	case player.PlaybackReady:
		m.ready = true

	case player.PlaybackProgress:
		if m.reporter != nil {
			m.reporter.Report(event.Progress.CurrentTime, event.Progress.Duration, event.Progress.Completed)
		}
		if event.Progress.Completed {
			m.completedReported = true
		}

	case player.PlaybackEnded:
		m.ended = true
		// The completed progress event usually precedes this; the fallback
		// covers media whose duration never became known in time
		if m.reporter != nil && !m.completedReported {
			m.reporter.ReportEnded()
			m.completedReported = true
		}
		return m, m.leave()

	case player.PlaybackClosed:
		log.Info("Player closed before the lesson ended", "lesson_id", m.lesson.ID)
		return m, m.leave()

	case player.PlaybackError:
		m.playbackError = event.Err.Error()
		return m, m.waitForPlayerEvent()
	}

	return m, m.waitForPlayerEvent()
}

// leave tears down the session and hands control back to the course detail view
func (m *LessonViewerModel) leave() tea.Cmd {
	refreshed := m.completedReported || m.reporterHasProgress()
	m.closeSession()
	return func() tea.Msg {
		return LessonClosedMsg{RefreshProgress: refreshed}
	}
}

func (m *LessonViewerModel) reporterHasProgress() bool {
	return m.reporter != nil && m.reporter.Snapshot().WatchedSeconds > 0
}

// closeSession stops the reporter timers and then the playback session
func (m *LessonViewerModel) closeSession() {
	if m.reporter != nil {
		m.reporter.Close()
		m.reporter = nil
	}
	if m.session != nil {
		m.session.Close()
		m.session = nil
		m.events = nil
	}
}

func (m *LessonViewerModel) View() string {
	contentWidth := min(m.width, 100)

	header := styles.Header(contentWidth, "Manabi - "+m.lesson.Title)

	var content string
	switch {
	case m.playbackError != "":
		content = styles.Error.Render("Playback failed: "+m.playbackError) + "\n\n"
		if m.session != nil || m.lesson.VideoURL != "" {
			content += styles.Info.Render("You can open the video externally:") + "\n"
			content += styles.Url.Render(m.lesson.VideoURL) + "\n\n"
		}
		content += styles.Info.Render("Press 'esc' to return to the course.")

	case !m.ready:
		content = styles.Info.Render("Starting player...") + "\n\n"
		content += styles.Info.Render("Press 'esc' to cancel.")

	default:
		content = m.renderProgress()
	}

	mainContent := styles.ContentBox(contentWidth, content, 1)
	combinedContent := lipgloss.JoinVertical(lipgloss.Center, header, mainContent)

	return styles.CenteredView(m.width, m.height, combinedContent)
}

func (m *LessonViewerModel) renderProgress() string {
	var snap progress.Snapshot
	if m.reporter != nil {
		snap = m.reporter.Snapshot()
	}

	status := "Playing in external player"
	if m.ended {
		status = "Finished"
	} else if snap.Completed {
		status = "Completed"
	}

	content := styles.Info.Render(status) + "\n\n"
	content += styles.ProgressBar.Render(util.FormatProgressBar(snap.Percent, 40)) + "\n"
	content += fmt.Sprintf("%s watched (%d%%)", util.FormatClock(snap.WatchedSeconds), snap.Percent)
	if m.lesson.DurationSeconds > 0 {
		content += " of " + util.FormatClock(m.lesson.DurationSeconds)
	}
	content += "\n\n" + styles.Info.Render("Progress is saved automatically. Press 'esc' to stop and return.")

	return content
}
