package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var errLoginAborted = errors.New("login aborted")

// tokenInputModel asks for the API token with the input masked.
type tokenInputModel struct {
	input     textinput.Model
	palette   *Palette
	confirmed bool
	aborted   bool
}

func newTokenInputModel(palette *Palette) tokenInputModel {
	ti := textinput.New()
	ti.Placeholder = "API token"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Width = 48
	ti.Focus()
	return tokenInputModel{input: ti, palette: palette}
}

func (m tokenInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m tokenInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			m.confirmed = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tokenInputModel) View() string {
	if m.confirmed || m.aborted {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(m.palette.Accent).Render("Log in to the report server")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.palette.Border).
		Padding(0, 1).
		Render(m.input.View())
	hint := m.palette.MutedStyle().Render("Enter to save, Esc to cancel")
	return lipgloss.JoinVertical(lipgloss.Left, title, "", box, hint) + "\n"
}

// readToken gets the token interactively on a terminal, or from the first
// line of in otherwise.
func readToken(in *os.File, palette *Palette) (string, error) {
	if !isatty.IsTerminal(in.Fd()) {
		return readTokenLine(in)
	}

	final, err := tea.NewProgram(newTokenInputModel(palette), tea.WithInput(in)).Run()
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	m := final.(tokenInputModel)
	if !m.confirmed {
		return "", errLoginAborted
	}
	return strings.TrimSpace(m.input.Value()), nil
}

func readTokenLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}
