package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const alertWidth = 48

// AlertModal is a blocking notice. While it is shown every key except the
// dismiss keys is swallowed.
type AlertModal struct {
	Title   string
	Message string
	Width   int
	Palette *Palette
}

// NewAlertModal creates a new alert
func NewAlertModal(title, message string, palette *Palette) *AlertModal {
	return &AlertModal{
		Title:   title,
		Message: message,
		Width:   alertWidth,
		Palette: palette,
	}
}

// Update reports whether msg dismisses the alert.
func (m *AlertModal) Update(msg tea.Msg) (dismissed bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false
	}
	switch key.String() {
	case "enter", "esc", " ":
		return true
	}
	return false
}

// Render renders the modal
func (m *AlertModal) Render() string {
	p := m.Palette
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Error).
		Width(m.Width - 4)
	body := lipgloss.NewStyle().
		Foreground(p.Text).
		Width(m.Width - 4).
		Render(wordwrap.String(m.Message, m.Width-4))
	hint := p.MutedStyle().Render("enter to dismiss")

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.Title), "", body, "", hint)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Error).
		Padding(0, 1).
		Width(m.Width).
		Render(content)
}
