package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ExportFormat is the file format of a conversation export
type ExportFormat string

const (
	ExportMarkdown ExportFormat = "md"
	ExportHTML     ExportFormat = "html"
)

func parseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return ExportMarkdown, nil
	case "html":
		return ExportHTML, nil
	}
	return "", fmt.Errorf("unknown export format: %s", s)
}

// exportConversation writes the conversation to dir and returns the file path
func exportConversation(messages []ChatMessage, format ExportFormat, dir string, now time.Time) (string, error) {
	markdown := conversationMarkdown(messages, now)

	content := markdown
	if format == ExportHTML {
		rendered, err := markdownToHTML(markdown)
		if err != nil {
			return "", err
		}
		content = rendered
	}

	filename := fmt.Sprintf("%s-export-%s.%s", appName, now.Format("20060102-150405"), format)
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// conversationMarkdown renders the finished messages as one Markdown document.
// Markup responses are reduced to their blocks; charts are kept as their JSON
// configuration.
func conversationMarkdown(messages []ChatMessage, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Raport Conversation\n\n")
	b.WriteString(fmt.Sprintf("_Exported %s_\n\n---\n\n", now.Format(time.RFC1123)))

	for _, m := range messages {
		if m.Pending || m.Role == RoleSystem {
			continue
		}
		if m.Role == RoleUser {
			b.WriteString("## You\n\n")
			b.WriteString(m.Text)
			b.WriteString("\n\n")
			continue
		}

		b.WriteString("## Report\n\n")
		if m.Failed {
			b.WriteString("> **Error:** " + m.Text + "\n\n")
			continue
		}
		kind := ClassifyResponse(&PromptResponse{Response: m.Text, Format: m.Format})
		doc, err := BuildDocument(kind, m.Text)
		if err != nil {
			b.WriteString(m.Text + "\n\n")
			continue
		}
		for _, block := range doc.Blocks {
			switch block.Kind {
			case MarkdownBlock:
				b.WriteString(strings.TrimSpace(block.Text))
			case ChartBlock:
				b.WriteString("```json\n" + strings.TrimSpace(block.Text) + "\n```")
			case ErrorBlock:
				b.WriteString("> **Error:** " + block.Text)
			}
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func markdownToHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("failed to convert export to HTML: %w", err)
	}
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Raport Conversation</title>\n</head>\n<body>\n" +
		body.String() + "</body>\n</html>\n", nil
}
