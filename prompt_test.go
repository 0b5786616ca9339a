package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptSendEnabled(t *testing.T) {
	p := NewPromptComponent(80, 4, NewPalette(false))
	assert.False(t, p.SendEnabled(), "empty")

	p.SetValue("   \n\t ")
	assert.False(t, p.SendEnabled(), "whitespace only")

	p.SetValue("  sales  ")
	assert.True(t, p.SendEnabled())
	assert.Equal(t, "sales", p.Trimmed())

	p.SetAwaiting(true)
	assert.False(t, p.SendEnabled(), "awaiting a response")

	p.SetAwaiting(false)
	assert.True(t, p.SendEnabled())
}

func TestPromptGrowsUpToMaxLines(t *testing.T) {
	p := NewPromptComponent(80, 3, NewPalette(false))
	assert.Equal(t, 1, p.TextArea.Height())
	assert.Equal(t, 4, p.Height())

	p.SetValue("one\ntwo")
	assert.Equal(t, 2, p.TextArea.Height())

	p.SetValue(strings.Repeat("line\n", 8) + "last")
	assert.Equal(t, 3, p.TextArea.Height())
	assert.Equal(t, 6, p.Height())

	p.Reset()
	assert.Equal(t, 1, p.TextArea.Height())
	assert.Empty(t, p.Value())
}

func TestPromptGrowsWithWrappedText(t *testing.T) {
	p := NewPromptComponent(40, 10, NewPalette(false))

	p.SetValue(strings.Repeat("word ", 40))
	assert.Equal(t, 6, p.TextArea.Height(), "seven words fit on each wrapped row")

	p.SetValue(strings.Repeat("x", 100))
	assert.Equal(t, 3, p.TextArea.Height(), "an unbroken word is split across rows")

	p.SetValue("short\n" + strings.Repeat("word ", 40))
	assert.Equal(t, 7, p.TextArea.Height())

	narrow := NewPromptComponent(40, 3, NewPalette(false))
	narrow.SetValue(strings.Repeat("word ", 40))
	assert.Equal(t, 3, narrow.TextArea.Height())
}

func TestWrappedRows(t *testing.T) {
	assert.Equal(t, 1, wrappedRows("", 20))
	assert.Equal(t, 1, wrappedRows("fits", 20))
	assert.Equal(t, 2, wrappedRows(strings.Repeat("ab ", 10), 20))
	assert.Equal(t, 1, wrappedRows("anything", 1))
}

func TestPromptInsertNewline(t *testing.T) {
	p := NewPromptComponent(80, 5, NewPalette(false))
	p.SetValue("first")
	p.InsertNewline()
	p.TextArea.InsertString("second")

	assert.Equal(t, "first\nsecond", p.Value())
	assert.Equal(t, 2, p.TextArea.Height())
}

func TestPromptEnterDoesNotInsertNewline(t *testing.T) {
	p := NewPromptComponent(80, 5, NewPalette(false))
	p.SetValue("report")

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "report", p.Value())
}

func TestPromptTyping(t *testing.T) {
	p := NewPromptComponent(80, 5, NewPalette(false))
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")})
	assert.Equal(t, "abc", p.Value())
}

func TestPromptMaxLinesAtLeastOne(t *testing.T) {
	p := NewPromptComponent(80, 0, NewPalette(true))
	require.Equal(t, 1, p.MaxLines)

	p.SetValue("a\nb")
	assert.Equal(t, 1, p.TextArea.Height())
}

func TestPromptViewShowsSendHint(t *testing.T) {
	p := NewPromptComponent(60, 3, NewPalette(false))
	view := ansi.Strip(p.View())
	assert.Contains(t, view, "⏎ send")
	assert.Contains(t, view, promptPlaceholder)
}
