package models

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/log"
	"github.com/snowlatte/manabi/internal/repository/lms"
	"github.com/snowlatte/manabi/internal/service"
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	config        *config.Config
	activeView    View  // Track the current active 'main view'
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	// Models used for various views
	loginModel        *LoginModel
	courseListModel   *CourseListModel
	courseDetailModel *CourseDetailModel
	lessonViewerModel *LessonViewerModel
	helpModel         *HelpModel

	// Services used for fetching and updating state
	courseService *service.CourseService
	progressRepo  domain.ProgressRepository
}

// NewAppModel creates a new instance of the main application model
func NewAppModel(cfg *config.Config) AppModel {
	m := AppModel{
		config:      cfg,
		activeView:  ViewLogin,
		activeModal: ModalNone,
		loginModel:  NewLoginModel(cfg),
		helpModel:   NewHelpModel(),
	}

	if cfg.Auth.Token != "" {
		log.Info("Token found in config file.  Skipping login")
		m.buildServices(cfg.Auth.Token)
		m.activeView = ViewCourseList
	}

	return m
}

// buildServices wires the API client, repositories and services for a token
func (m *AppModel) buildServices(token string) {
	client := lms.NewClient(m.config.API.BaseURL, token)
	courseRepo := lms.NewCourseRepository(client)
	m.progressRepo = lms.NewProgressRepository(client)
	m.courseService = service.NewCourseService(courseRepo)

	m.courseListModel = NewCourseListModel(m.config, m.courseService)
	m.courseDetailModel = NewCourseDetailModel(m.courseService)
	m.lessonViewerModel = NewLessonViewerModel(m.config, m.progressRepo)
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising Manabi TUI")

	// If starting on the course list, load the courses now
	if m.activeView == ViewCourseList {
		return m.courseListModel.Init()
	}

	return m.loginModel.Init()
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			log.Info("Quit command received.  Shutting down...")
			m.stopPlayback()
			return m, tea.Quit
		case "ctrl+l":
			if m.activeView == ViewLogin {
				return m, nil
			}
			log.Info("Logging out.  Cleaning up token from config file...")
			m.stopPlayback()
			m.config.Auth.Token = ""
			if err := config.UpdateConfig(func(conf *config.Config) {
				conf.Auth.Token = ""
			}); err != nil {
				log.Warn("Error clearing token from config", "error", err)
			}
			m.loginModel.Reset()
			m.activeView = ViewLogin
			m.activeModal = ModalNone
			return m, nil
		case "ctrl+h":
			// Disable/toggle modal if one already active
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
			} else {
				m.helpModel.SetContext(m.activeView)
				m.activeModal = ModalHelp
			}
			return m, nil

		case "esc":
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
			// Course detail backs out to the list.  The lesson viewer handles
			// esc itself because it owns a live playback session.
			if m.activeView == ViewCourseDetail {
				m.activeView = ViewCourseList
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Propagate new window size to all views so they are aware and can render correctly
		m.loginModel.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)
		if m.courseListModel != nil {
			m.courseListModel.Resize(msg.Width, msg.Height)
			m.courseDetailModel.Resize(msg.Width, msg.Height)
			m.lessonViewerModel.Resize(msg.Width, msg.Height)
		}

	case LoginCompletedMsg:
		log.Info("Login successful", "user", msg.User.Email)
		m.config.Auth.Token = msg.Token
		if err := config.UpdateConfig(func(conf *config.Config) {
			conf.Auth.Token = msg.Token
		}); err != nil {
			log.Warn("Error saving token to config.  Will need to login again next time", "error", err)
		}
		m.loginModel.Reset()

		m.buildServices(msg.Token)
		m.courseListModel.Resize(m.width, m.height)
		m.courseDetailModel.Resize(m.width, m.height)
		m.lessonViewerModel.Resize(m.width, m.height)
		m.activeView = ViewCourseList

		return m, m.courseListModel.Init()

	case LoginFailedMsg:
		log.Warn("Login failed", "error", msg.Error)
		m.loginModel.SetError(msg.Error)
		return m, nil

	case CoursesErrorMsg:
		// A stale token surfaces here as an auth error on the first load
		if lms.IsAuthError(msg.Error) {
			log.Warn("Stored token rejected by the backend.  Reauthentication required")
			m.config.Auth.Token = ""
			m.loginModel.Reset()
			m.loginModel.SetError("session expired, please login again")
			m.activeView = ViewLogin
			return m, nil
		}
		return m.updateCourseListView(msg)

	case OpenCourseMsg:
		m.activeView = ViewCourseDetail
		return m, m.courseDetailModel.SetCourse(msg.Course)

	case OpenLessonMsg:
		log.Info("Opening lesson", "lesson_id", msg.Lesson.ID, "title", msg.Lesson.Title)
		m.activeView = ViewLessonViewer
		return m, m.lessonViewerModel.Open(msg.Course, msg.Lesson)

	case LessonClosedMsg:
		m.activeView = ViewCourseDetail
		if msg.RefreshProgress {
			return m, m.courseDetailModel.Refresh()
		}
		return m, nil
	}

	// Prioritise delegating messages to a modal if one is active
	if m.activeModal == ModalHelp {
		return m.updateHelpModal(msg)
	}

	// Delegate message processing to the active view
	switch m.activeView {
	case ViewLogin:
		return m.updateLoginView(msg)
	case ViewCourseList:
		return m.updateCourseListView(msg)
	case ViewCourseDetail:
		return m.updateCourseDetailView(msg)
	case ViewLessonViewer:
		return m.updateLessonViewerView(msg)
	}

	return m, nil
}

func (m AppModel) View() string {
	// If there is an active modal it takes precedence
	if m.activeModal == ModalHelp {
		return m.helpModel.View()
	}

	switch m.activeView {
	case ViewLogin:
		return m.loginModel.View()
	case ViewCourseList:
		return m.courseListModel.View()
	case ViewCourseDetail:
		return m.courseDetailModel.View()
	case ViewLessonViewer:
		return m.lessonViewerModel.View()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}

// stopPlayback tears down any live playback session
func (m *AppModel) stopPlayback() {
	if m.lessonViewerModel != nil {
		m.lessonViewerModel.closeSession()
	}
}

func (m AppModel) updateLoginView(msg tea.Msg) (tea.Model, tea.Cmd) {
	loginModel, cmd := m.loginModel.Update(msg)
	m.loginModel = loginModel.(*LoginModel)
	return m, cmd
}

func (m AppModel) updateCourseListView(msg tea.Msg) (tea.Model, tea.Cmd) {
	courseListModel, cmd := m.courseListModel.Update(msg)
	m.courseListModel = courseListModel.(*CourseListModel)
	return m, cmd
}

func (m AppModel) updateCourseDetailView(msg tea.Msg) (tea.Model, tea.Cmd) {
	courseDetailModel, cmd := m.courseDetailModel.Update(msg)
	m.courseDetailModel = courseDetailModel.(*CourseDetailModel)
	return m, cmd
}

func (m AppModel) updateLessonViewerView(msg tea.Msg) (tea.Model, tea.Cmd) {
	lessonViewerModel, cmd := m.lessonViewerModel.Update(msg)
	m.lessonViewerModel = lessonViewerModel.(*LessonViewerModel)
	return m, cmd
}

func (m AppModel) updateHelpModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	helpModel, cmd := m.helpModel.Update(msg)
	m.helpModel = helpModel.(*HelpModel)
	return m, cmd
}
