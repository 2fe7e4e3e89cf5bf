package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snowlatte/manabi/internal/config"
	"github.com/snowlatte/manabi/internal/ui/tui/models"
)

func Run(cfg *config.Config) error {
	p := tea.NewProgram(models.NewAppModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
