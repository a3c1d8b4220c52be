package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/trackerlab/itc/internal/models"
)

// Theme holds the lipgloss styles shared by the browser and detail views.
type Theme struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style
	Notice   lipgloss.Style
	Error    lipgloss.Style
	Tag      lipgloss.Style

	statusToDo       lipgloss.Style
	statusInProgress lipgloss.Style
	statusDone       lipgloss.Style
}

// DefaultTheme returns the standard color scheme.
func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		Value:    lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Tag:      lipgloss.NewStyle().Foreground(lipgloss.Color("13")),

		statusToDo:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		statusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		statusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// Status renders a status label in its workflow color. Unknown labels render
// muted, not hidden.
func (t Theme) Status(status models.Status) string {
	switch status {
	case models.StatusToBeDone:
		return t.statusToDo.Render(string(status))
	case models.StatusInProgress:
		return t.statusInProgress.Render(string(status))
	case models.StatusDone:
		return t.statusDone.Render(string(status))
	default:
		return t.Muted.Render(string(status))
	}
}
