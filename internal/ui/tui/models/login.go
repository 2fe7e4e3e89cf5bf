package models

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/log"
	"github.com/snowlatte/manabi/internal/repository/lms"
	"github.com/snowlatte/manabi/internal/ui/tui/keybindings"
	"github.com/snowlatte/manabi/internal/ui/tui/styles"
)

type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
)

type LoginModel struct {
	config          *config.Config
	width, height   int
	emailInput      textinput.Model
	passwordInput   textinput.Model
	focused         loginField
	loginInProgress bool
	errorMessage    string
}

func NewLoginModel(cfg *config.Config) *LoginModel {
	email := textinput.New()
	email.Placeholder = "student@example.com"
	email.CharLimit = 120
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &LoginModel{
		config:        cfg,
		emailInput:    email,
		passwordInput: password,
		focused:       fieldEmail,
	}
}

func (m *LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *LoginModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

func (m *LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loginInProgress {
			// Ignore input while a login attempt is in flight
			return m, nil
		}

		switch keybindings.GetActionByKey(msg, keybindings.ContextLogin) {
		case keybindings.ActionNextField:
			m.toggleFocus()
			return m, nil
		case keybindings.ActionSubmitLogin:
			m.loginInProgress = true
			m.errorMessage = ""
			return m, m.startLogin()
		}
	}

	var cmd tea.Cmd
	if m.focused == fieldEmail {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m *LoginModel) toggleFocus() {
	if m.focused == fieldEmail {
		m.focused = fieldPassword
		m.emailInput.Blur()
		m.passwordInput.Focus()
	} else {
		m.focused = fieldEmail
		m.passwordInput.Blur()
		m.emailInput.Focus()
	}
}

// startLogin exchanges the entered credentials for a token
func (m *LoginModel) startLogin() tea.Cmd {
	email := m.emailInput.Value()
	password := m.passwordInput.Value()
	baseURL := m.config.API.BaseURL

	return func() tea.Msg {
		log.Info("Attempting login", "email", email)

		client := lms.NewClient(baseURL, "")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := client.Login(ctx, email, password)
		if err != nil {
			return LoginFailedMsg{Error: err.Error()}
		}

		return LoginCompletedMsg{Token: result.Token, User: result.User}
	}
}

// Reset resets the login model so it is ready for a fresh login if necessary
func (m *LoginModel) Reset() {
	m.loginInProgress = false
	m.errorMessage = ""
	m.passwordInput.SetValue("")
	if m.focused == fieldPassword {
		m.toggleFocus()
	}
}

// SetError displays a login failure message
func (m *LoginModel) SetError(message string) {
	m.loginInProgress = false
	m.errorMessage = message
}

func (m *LoginModel) View() string {
	contentWidth := min(m.width, 80)

	header := styles.Header(contentWidth, "Manabi")

	var content string
	if m.loginInProgress {
		content = styles.CenteredText(contentWidth-2, styles.Info.Render("Logging in..."))
	} else {
		content = styles.Info.Render("Sign in with your student account.") + "\n\n"
		content += "Email:\n" + m.emailInput.View() + "\n\n"
		content += "Password:\n" + m.passwordInput.View() + "\n\n"
		content += styles.Info.Render("Press 'enter' to login, 'tab' to switch fields, 'ctrl+c' to quit.")

		if m.errorMessage != "" {
			content += "\n\n" + styles.Error.Render("Login failed: "+m.errorMessage)
		}
	}

	mainContent := styles.ContentBox(contentWidth, content, 1)
	combinedContent := lipgloss.JoinVertical(lipgloss.Center, header, mainContent)

	return styles.CenteredView(m.width, m.height, combinedContent)
}
