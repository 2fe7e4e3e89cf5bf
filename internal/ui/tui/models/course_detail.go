package models

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/log"
	"github.com/snowlatte/manabi/internal/media"
	"github.com/snowlatte/manabi/internal/service"
	"github.com/snowlatte/manabi/internal/ui/tui/keybindings"
	"github.com/snowlatte/manabi/internal/ui/tui/styles"
	"github.com/snowlatte/manabi/internal/ui/tui/util"
)

// detailRow is one selectable line of the course detail view: either a section
// heading or a lesson
type detailRow struct {
	sectionTitle string
	lesson       *domain.Lesson
}

// CourseDetailModel displays a course's section/lesson tree with saved
// progress markers
type CourseDetailModel struct {
	courseService *service.CourseService
	width, height int
	loading       bool
	loadError     error
	spinner       spinner.Model

	course  *domain.Course
	content *domain.CourseContent
	rows    []detailRow
	cursor  int
}

func NewCourseDetailModel(courseService *service.CourseService) *CourseDetailModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D7D9A"))

	return &CourseDetailModel{
		courseService: courseService,
		spinner:       s,
	}
}

// SetCourse points the model at a course and triggers a content load
func (m *CourseDetailModel) SetCourse(course *domain.Course) tea.Cmd {
	m.course = course
	m.content = nil
	m.rows = nil
	m.cursor = 0
	m.loading = true
	m.loadError = nil

	return tea.Batch(m.spinner.Tick, loadCourseContent(m.courseService, course.ID))
}

// Refresh refetches the content of the current course
func (m *CourseDetailModel) Refresh() tea.Cmd {
	if m.course == nil {
		return nil
	}
	m.loading = true
	m.loadError = nil
	return tea.Batch(m.spinner.Tick, loadCourseContent(m.courseService, m.course.ID))
}

func loadCourseContent(courseService *service.CourseService, courseID int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		content, err := courseService.GetCourseContent(ctx, courseID)
		if err != nil {
			log.Error("Failed to load course content", "course_id", courseID, "error", err)
			return CourseContentErrorMsg{CourseID: courseID, Error: err}
		}

		return CourseContentLoadedMsg{Content: content}
	}
}

func (m *CourseDetailModel) Init() tea.Cmd {
	return nil
}

func (m *CourseDetailModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

func (m *CourseDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		return m, spinnerCmd

	case CourseContentLoadedMsg:
		m.loading = false
		m.content = msg.Content
		m.buildRows()

	case CourseContentErrorMsg:
		m.loading = false
		m.loadError = msg.Error
	}

	if m.loading {
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		return m, spinnerCmd
	}

	return m, nil
}

func (m *CourseDetailModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keybindings.GetActionByKey(msg, keybindings.ContextCourseDetail) {
	case keybindings.ActionMoveUp:
		m.moveCursor(-1)
	case keybindings.ActionMoveDown:
		m.moveCursor(1)
	case keybindings.ActionMoveTop:
		m.cursor = 0
		m.moveCursor(0)
	case keybindings.ActionMoveBottom:
		m.cursor = len(m.rows) - 1
		m.moveCursor(0)
	case keybindings.ActionRefreshCourse:
		return m, m.Refresh()
	case keybindings.ActionPlayLesson:
		lesson := m.selectedLesson()
		if lesson == nil {
			return m, nil
		}
		if lesson.VideoURL == "" {
			log.Info("Lesson has no video content", "lesson_id", lesson.ID)
			return m, nil
		}
		course := m.course
		selected := *lesson
		return m, func() tea.Msg {
			return OpenLessonMsg{Course: course, Lesson: selected}
		}
	}

	return m, nil
}

// moveCursor moves by delta, skipping section heading rows
func (m *CourseDetailModel) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}

	step := delta
	if step == 0 {
		step = 1
	}

	pos := m.cursor + delta
	for pos >= 0 && pos < len(m.rows) && m.rows[pos].lesson == nil {
		pos += sign(step)
	}
	if pos >= 0 && pos < len(m.rows) && m.rows[pos].lesson != nil {
		m.cursor = pos
	}
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	return 1
}

// buildRows flattens the section/lesson tree into selectable rows
func (m *CourseDetailModel) buildRows() {
	m.rows = nil
	for i := range m.content.Sections {
		section := &m.content.Sections[i]
		m.rows = append(m.rows, detailRow{sectionTitle: section.Title})
		for j := range section.Lessons {
			m.rows = append(m.rows, detailRow{lesson: &section.Lessons[j]})
		}
	}

	// Land the cursor on the first lesson
	m.cursor = 0
	m.moveCursor(0)
}

func (m *CourseDetailModel) selectedLesson() *domain.Lesson {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].lesson
}

func (m *CourseDetailModel) View() string {
	title := "Course"
	if m.course != nil {
		title = m.course.Title
	}

	if m.loading {
		return styles.CenteredView(
			m.width,
			m.height,
			fmt.Sprintf("%s Loading %s...", m.spinner.View(), title),
		)
	}

	if m.loadError != nil {
		errorMsg := fmt.Sprintf("Error loading course: %v\n\nPress 'r' to retry or 'esc' to go back.", m.loadError)
		return styles.CenteredView(
			m.width,
			m.height,
			styles.ContentBox(m.width-20, errorMsg, 1),
		)
	}

	header := styles.Header(m.width, "Manabi - "+title)
	content := m.renderLessonTree()
	footer := styles.CenteredText(m.width, styles.Info.Render("enter: play lesson • r: refresh • esc: back"))

	return fmt.Sprintf("%s\n\n%s\n\n%s", header, content, footer)
}

func (m *CourseDetailModel) renderLessonTree() string {
	if len(m.rows) == 0 {
		return styles.CenteredText(m.width, "This course has no content yet")
	}

	availableHeight := m.height - 9
	if availableHeight < 1 {
		availableHeight = 1
	}

	visibleCount := min(len(m.rows), availableHeight)

	startIdx := 0
	if m.cursor >= visibleCount {
		startIdx = m.cursor - visibleCount + 1
	}
	endIdx := startIdx + visibleCount
	if endIdx > len(m.rows) {
		endIdx = len(m.rows)
	}

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Width(m.width-4).
		Padding(0, 1)

	selectedStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#2D7D9A")).
		Width(m.width-4).
		Padding(0, 1)

	normalStyle := lipgloss.NewStyle().
		Width(m.width-4).
		Padding(0, 2)

	var listContent string
	for i := startIdx; i < endIdx; i++ {
		row := m.rows[i]

		if row.lesson == nil {
			listContent += sectionStyle.Render("▸ "+row.sectionTitle) + "\n"
			continue
		}

		itemText := m.formatLessonItem(row.lesson)
		if i == m.cursor {
			listContent += selectedStyle.Render(itemText) + "\n"
		} else {
			listContent += normalStyle.Render(itemText) + "\n"
		}
	}

	if len(m.rows) > visibleCount {
		pagination := fmt.Sprintf("Showing %d-%d of %d", startIdx+1, endIdx, len(m.rows))
		listContent += styles.CenteredText(m.width-4, pagination)
	}

	return styles.ContentBox(m.width-2, listContent, 1)
}

// formatLessonItem formats a single lesson row with progress markers
func (m *CourseDetailModel) formatLessonItem(lesson *domain.Lesson) string {
	marker := "[ ]"
	if lesson.Progress != nil {
		if lesson.Progress.Completed {
			marker = styles.Completed.Render("[✓]")
		} else if lesson.Progress.WatchedSeconds > 0 {
			marker = "[~]"
		}
	}

	title := util.PadString(lesson.Title, 50)

	duration := ""
	if lesson.DurationSeconds > 0 {
		duration = util.FormatClock(lesson.DurationSeconds)
	}

	position := ""
	if lesson.Progress != nil && !lesson.Progress.Completed && lesson.Progress.WatchedSeconds > 0 {
		position = "at " + util.FormatClock(lesson.Progress.WatchedSeconds)
	}

	kindTag := ""
	switch media.Classify(lesson.VideoURL) {
	case media.KindEmbedded:
		kindTag = "(yt)"
	case media.KindDirectFile:
		kindTag = "(file)"
	default:
		if lesson.VideoURL == "" {
			kindTag = "(no video)"
		} else {
			kindTag = "(unsupported)"
		}
	}

	return fmt.Sprintf("%s %s %8s %-10s %s", marker, title, duration, position, kindTag)
}
