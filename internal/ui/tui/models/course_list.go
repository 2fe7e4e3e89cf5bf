package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/log"
	"github.com/snowlatte/manabi/internal/service"
	"github.com/snowlatte/manabi/internal/ui/tui/keybindings"
	"github.com/snowlatte/manabi/internal/ui/tui/styles"
	"github.com/snowlatte/manabi/internal/ui/tui/util"
)

// CourseListModel handles displaying and interacting with the enrolled course list
type CourseListModel struct {
	config        *config.Config
	courseService *service.CourseService
	width, height int
	loading       bool
	loadError     error
	spinner       spinner.Model

	cursor          int
	allCourses      []*domain.Course
	filteredCourses []*domain.Course

	searchActive   bool
	searchInput    textinput.Model
	inProgressOnly bool
}

// NewCourseListModel creates a new course list model
func NewCourseListModel(cfg *config.Config, courseService *service.CourseService) *CourseListModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#2D7D9A"))

	search := textinput.New()
	search.Placeholder = "search courses"
	search.CharLimit = 80
	search.Width = 30

	return &CourseListModel{
		config:          cfg,
		courseService:   courseService,
		loading:         true,
		spinner:         s,
		searchInput:     search,
		allCourses:      []*domain.Course{},
		filteredCourses: []*domain.Course{},
	}
}

// loadCourses loads the enrolled course list from the service
func loadCourses(courseService *service.CourseService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := courseService.LoadCourses(ctx); err != nil {
			log.Error("Failed to load course list", "error", err)
			return CoursesErrorMsg{Error: err}
		}

		return CoursesLoadedMsg{}
	}
}

// Init initializes the model
func (m *CourseListModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadCourses(m.courseService),
	)
}

// Resize updates the model with new dimensions
func (m *CourseListModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages and updates the model
func (m *CourseListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searchActive {
			return m.updateSearchMode(msg)
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		return m, spinnerCmd

	case CoursesLoadedMsg:
		m.loading = false
		m.allCourses = m.courseService.GetCourses()
		m.applyFilters()

	case CoursesErrorMsg:
		log.Debug("Course list load error", "error", msg.Error)
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

func (m *CourseListModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keybindings.GetActionByKey(msg, keybindings.ContextCourseList) {
	case keybindings.ActionOpenCourse:
		course := m.GetSelectedCourse()
		if course == nil {
			return m, nil
		}
		return m, func() tea.Msg {
			return OpenCourseMsg{Course: course}
		}
	case keybindings.ActionMoveUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case keybindings.ActionMoveDown:
		if len(m.filteredCourses) > 0 && m.cursor < len(m.filteredCourses)-1 {
			m.cursor++
		}
	case keybindings.ActionMoveTop:
		m.cursor = 0
	case keybindings.ActionMoveBottom:
		if len(m.filteredCourses) > 0 {
			m.cursor = len(m.filteredCourses) - 1
		}
	case keybindings.ActionRefreshCourseList:
		m.loading = true
		m.loadError = nil
		return m, tea.Batch(m.spinner.Tick, loadCourses(m.courseService))
	case keybindings.ActionEnableSearch:
		m.searchActive = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case keybindings.ActionToggleInProgress:
		m.inProgressOnly = !m.inProgressOnly
		m.applyFilters()
		m.cursor = 0
	}

	return m, nil
}

func (m *CourseListModel) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keybindings.GetActionByKey(msg, keybindings.ContextSearchMode) {
	case keybindings.ActionBack:
		m.searchActive = false
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.applyFilters()
		return m, nil
	case keybindings.ActionSearchComplete:
		m.searchActive = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applyFilters()
	m.cursor = 0
	return m, cmd
}

// applyFilters applies the search query and filters to the course list
func (m *CourseListModel) applyFilters() {
	query := strings.TrimSpace(m.searchInput.Value())

	m.filteredCourses = []*domain.Course{}
	for _, course := range m.allCourses {
		if m.inProgressOnly && (course.ProgressPercent == 0 || course.ProgressPercent >= 100) {
			continue
		}
		if query != "" && !fuzzy.MatchFold(query, course.Title) && !fuzzy.MatchFold(query, course.TeacherName) {
			continue
		}
		m.filteredCourses = append(m.filteredCourses, course)
	}

	// Reset cursor if it's out of bounds
	if len(m.filteredCourses) == 0 {
		m.cursor = 0
	} else if m.cursor >= len(m.filteredCourses) {
		m.cursor = len(m.filteredCourses) - 1
	}
}

// GetSelectedCourse returns the currently selected course or nil if none
func (m *CourseListModel) GetSelectedCourse() *domain.Course {
	if len(m.filteredCourses) == 0 || m.cursor >= len(m.filteredCourses) {
		return nil
	}
	return m.filteredCourses[m.cursor]
}

// View renders the course list model
func (m *CourseListModel) View() string {
	if m.loading {
		return styles.CenteredView(
			m.width,
			m.height,
			fmt.Sprintf("%s Loading courses...", m.spinner.View()),
		)
	}

	if m.loadError != nil {
		errorMsg := fmt.Sprintf("Error loading courses: %v\n\nPress 'r' to retry.", m.loadError)
		return styles.CenteredView(
			m.width,
			m.height,
			styles.ContentBox(m.width-20, errorMsg, 1),
		)
	}

	header := styles.Header(m.width, "Manabi - My Courses")
	statusLine := m.renderStatusLine()
	content := m.renderCourseList()

	return fmt.Sprintf("%s\n\n%s\n\n%s", header, statusLine, content)
}

func (m *CourseListModel) renderStatusLine() string {
	var parts []string
	if m.searchActive {
		parts = append(parts, "Search: "+m.searchInput.View())
	} else if m.searchInput.Value() != "" {
		parts = append(parts, "Search: "+m.searchInput.Value())
	}
	if m.inProgressOnly {
		parts = append(parts, "[In progress only]")
	}
	if len(parts) == 0 {
		parts = append(parts, "Press '/' to search, 'a' to filter, 'enter' to open")
	}
	return styles.Title.Render("Courses:") + styles.Info.Padding(0, 2).Render(strings.Join(parts, "  "))
}

// renderCourseList renders the filtered course list
func (m *CourseListModel) renderCourseList() string {
	courses := m.filteredCourses

	if len(courses) == 0 {
		return styles.CenteredText(m.width, "No courses found")
	}

	availableHeight := m.height - 10
	if availableHeight < 1 {
		availableHeight = 1
	}

	visibleCount := min(len(courses), availableHeight-1)

	startIdx := 0
	if m.cursor >= visibleCount {
		startIdx = m.cursor - visibleCount + 1
	}
	endIdx := startIdx + visibleCount
	if endIdx > len(courses) {
		endIdx = len(courses)
	}

	headerStyle := lipgloss.NewStyle().
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
		Padding(0, 1)

	var listContent string

	headerText := fmt.Sprintf("%-45s %-20s %8s %10s", "Title", "Teacher", "Lessons", "Progress")
	listContent += headerStyle.Render(headerText) + "\n"
	listContent += strings.Repeat("─", m.width-6) + "\n"

	for i := startIdx; i < endIdx; i++ {
		itemText := m.formatCourseListItem(courses[i])
		if i == m.cursor {
			listContent += selectedStyle.Render(itemText) + "\n"
		} else {
			listContent += normalStyle.Render(itemText) + "\n"
		}
	}

	if len(courses) > visibleCount {
		pagination := fmt.Sprintf("Showing %d-%d of %d", startIdx+1, endIdx, len(courses))
		listContent += styles.CenteredText(m.width-4, pagination)
	}

	return styles.ContentBox(m.width-2, listContent, 1)
}

// formatCourseListItem formats a single course list item
func (m *CourseListModel) formatCourseListItem(course *domain.Course) string {
	title := util.PadString(course.Title, 45)
	teacher := util.PadString(course.TeacherName, 20)
	progress := fmt.Sprintf("%3d%%", course.ProgressPercent)

	return fmt.Sprintf("%s %s %8d %10s", title, teacher, course.LessonCount, progress)
}
