package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const promptPlaceholder = "Describe the report you need..."

// PromptComponent represents the user input text area. It grows with its
// content up to MaxLines and tracks whether sending is allowed.
type PromptComponent struct {
	TextArea textarea.Model
	MaxLines int
	Width    int
	Palette  *Palette
	awaiting bool
}

// NewPromptComponent creates a new prompt component
func NewPromptComponent(width, maxLines int, palette *Palette) PromptComponent {
	ta := textarea.New()
	ta.Placeholder = promptPlaceholder
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	// enter submits; newlines are inserted explicitly by the controller
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	if maxLines < 1 {
		maxLines = 1
	}
	p := PromptComponent{
		TextArea: ta,
		MaxLines: maxLines,
		Palette:  palette,
	}
	p.SetWidth(width)
	p.TextArea.SetHeight(1)
	return p
}

// SetWidth updates the width of the prompt component
func (p *PromptComponent) SetWidth(width int) {
	p.Width = width
	p.TextArea.SetWidth(max(width-4, 10))
	p.Grow()
}

// SetPalette switches the border and text colors.
func (p *PromptComponent) SetPalette(palette *Palette) {
	p.Palette = palette
}

// SetValue sets the text value of the prompt
func (p *PromptComponent) SetValue(value string) {
	p.TextArea.SetValue(value)
	p.Grow()
}

// Value returns the current text value
func (p PromptComponent) Value() string {
	return p.TextArea.Value()
}

// Trimmed returns the value without surrounding whitespace.
func (p PromptComponent) Trimmed() string {
	return strings.TrimSpace(p.TextArea.Value())
}

// InsertNewline adds a line break at the cursor.
func (p *PromptComponent) InsertNewline() {
	p.TextArea.InsertString("\n")
	p.Grow()
}

// Reset clears the input and returns it to a single line.
func (p *PromptComponent) Reset() {
	p.TextArea.Reset()
	p.Grow()
}

// Grow fits the height to the number of rows the text occupies once
// soft-wrapped, between 1 and MaxLines.
func (p *PromptComponent) Grow() {
	p.TextArea.SetHeight(min(max(p.visualRows(), 1), p.MaxLines))
}

func (p PromptComponent) visualRows() int {
	rows := 0
	for _, line := range strings.Split(p.TextArea.Value(), "\n") {
		rows += wrappedRows(line, p.TextArea.Width())
	}
	return rows
}

// wrappedRows counts the rows line needs at width columns. The textarea
// keeps the last column of each row for the cursor.
func wrappedRows(line string, width int) int {
	usable := width - 1
	if usable < 1 {
		return 1
	}
	rows := 0
	for _, row := range strings.Split(wordwrap.String(line, usable), "\n") {
		rows += max(1, (lipgloss.Width(row)+usable-1)/usable)
	}
	return rows
}

// Height is the number of rows the rendered prompt occupies.
func (p PromptComponent) Height() int {
	return p.TextArea.Height() + 3
}

// SetAwaiting records whether a request is in flight.
func (p *PromptComponent) SetAwaiting(awaiting bool) {
	p.awaiting = awaiting
}

// SendEnabled reports whether a submission would be accepted: there is
// non-whitespace text and no request in flight.
func (p PromptComponent) SendEnabled() bool {
	return p.Trimmed() != "" && !p.awaiting
}

// Focus gives focus to the prompt
func (p *PromptComponent) Focus() {
	p.TextArea.Focus()
}

// Blur removes focus from the prompt
func (p *PromptComponent) Blur() {
	p.TextArea.Blur()
}

// Update handles messages for the prompt component
func (p PromptComponent) Update(msg tea.Msg) (PromptComponent, tea.Cmd) {
	var cmd tea.Cmd
	p.TextArea, cmd = p.TextArea.Update(msg)
	p.Grow()
	return p, cmd
}

// View renders the prompt component
func (p PromptComponent) View() string {
	border := p.Palette.Border
	if p.SendEnabled() {
		border = p.Palette.Accent
	}
	send := p.Palette.MutedStyle().Render("⏎ send")
	if p.SendEnabled() {
		send = lipgloss.NewStyle().Foreground(p.Palette.Accent).Bold(true).Render("⏎ send")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(max(p.Width-2, 10)).
		Render(p.TextArea.View())
	return lipgloss.JoinVertical(lipgloss.Right, box, send)
}
