package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2026, 5, 4, 9, 30, 15, 0, time.UTC)

func exportMessages() []ChatMessage {
	chart := `{"type":"bar","data":{"datasets":[{"data":[1]}]}}`
	return []ChatMessage{
		{Role: RoleSystem, Text: "### Keys"},
		{Role: RoleUser, Text: "Sales report"},
		{Role: RoleAI, Text: "**Sales** rose", Format: "markdown"},
		{Role: RoleUser, Text: "As a chart"},
		{Role: RoleAI, Format: "html", Text: `<p>Chart below</p>` + canvas(chart) + `<div class="report-error">Q4 missing</div>`},
		{Role: RoleUser, Text: "Again"},
		{Role: RoleAI, Text: "A critical error occurred: the server could not be reached. Please try again.", Failed: true},
		{Role: RoleUser, Text: "Pending"},
		{Role: RoleAI, Pending: true},
	}
}

func TestConversationMarkdown(t *testing.T) {
	md := conversationMarkdown(exportMessages(), exportTime)

	assert.True(t, strings.HasPrefix(md, "# Raport Conversation\n\n"))
	assert.NotContains(t, md, "### Keys", "system messages are not exported")
	assert.Equal(t, 4, strings.Count(md, "## You"))
	assert.Equal(t, 3, strings.Count(md, "## Report"), "the pending placeholder is skipped")

	assert.Contains(t, md, "Sales report\n\n## Report\n\n**Sales** rose")
	assert.Contains(t, md, "Chart below")
	assert.Contains(t, md, "```json\n{\"type\":\"bar\"")
	assert.Contains(t, md, "> **Error:** Q4 missing")
	assert.Contains(t, md, "> **Error:** A critical error occurred")
	assert.NotContains(t, md, "<canvas")
}

func TestExportConversationMarkdown(t *testing.T) {
	dir := t.TempDir()
	path, err := exportConversation(exportMessages(), ExportMarkdown, dir, exportTime)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "raport-export-20260504-093015.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## You")
}

func TestExportConversationHTML(t *testing.T) {
	dir := t.TempDir()
	path, err := exportConversation(exportMessages(), ExportHTML, dir, exportTime)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".html"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<h1>Raport Conversation</h1>")
	assert.Contains(t, html, "<strong>Sales</strong> rose")
	assert.Contains(t, html, `<code class="language-json">`)
	assert.Contains(t, html, "<blockquote>")
}

func TestExportConversationBadDir(t *testing.T) {
	_, err := exportConversation(exportMessages(), ExportMarkdown, filepath.Join(t.TempDir(), "missing"), exportTime)
	assert.Error(t, err)
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    ExportFormat
		wantErr bool
	}{
		{input: "", want: ExportMarkdown},
		{input: "md", want: ExportMarkdown},
		{input: "Markdown", want: ExportMarkdown},
		{input: " html ", want: ExportHTML},
		{input: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseExportFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
