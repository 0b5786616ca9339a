package main

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContentKind says how a response payload must be treated.
type ContentKind int

const (
	// MarkdownText is untrusted text that goes through the Markdown renderer.
	MarkdownText ContentKind = iota
	// TrustedMarkup is server-rendered HTML, sanitised and post-processed.
	TrustedMarkup
)

func (k ContentKind) String() string {
	if k == TrustedMarkup {
		return "markup"
	}
	return "markdown"
}

// ClassifyResponse decides which side of the trust boundary a payload is on.
// An explicit format from the server wins; otherwise text that starts with a
// tag and parses to at least one element is markup.
func ClassifyResponse(resp *PromptResponse) ContentKind {
	switch strings.ToLower(strings.TrimSpace(resp.Format)) {
	case "html", "markup":
		return TrustedMarkup
	case "markdown", "md", "text":
		return MarkdownText
	}

	text := strings.TrimSpace(resp.Response)
	if !strings.HasPrefix(text, "<") {
		return MarkdownText
	}
	nodes, err := parseFragment(text)
	if err != nil {
		return MarkdownText
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return TrustedMarkup
		}
	}
	return MarkdownText
}

// BlockKind is the kind of a rendered document block.
type BlockKind int

const (
	MarkdownBlock BlockKind = iota
	ChartBlock
	ErrorBlock
)

// Block is one unit of a response document.
type Block struct {
	Kind BlockKind
	// Markdown source, chart configuration JSON, or error text.
	Text string
}

// Document is a response flattened into blocks in display order.
type Document struct {
	Blocks []Block
}

// ChartCount returns the number of chart blocks.
func (d Document) ChartCount() int {
	n := 0
	for _, b := range d.Blocks {
		if b.Kind == ChartBlock {
			n++
		}
	}
	return n
}

// markupPolicy keeps what the renderer needs from server markup: user
// generated content plus chart canvases, classes and data attributes.
func markupPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("canvas")
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	return p
}

var sanitizer = markupPolicy()

// BuildDocument turns a payload into a Document according to its kind.
func BuildDocument(kind ContentKind, payload string) (Document, error) {
	if kind == MarkdownText {
		return Document{Blocks: []Block{{Kind: MarkdownBlock, Text: payload}}}, nil
	}

	clean := sanitizer.Sanitize(payload)
	nodes, err := parseFragment(clean)
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse markup: %w", err)
	}

	f := &flattener{}
	for _, n := range nodes {
		f.walk(n)
	}
	f.flush()
	return Document{Blocks: f.blocks}, nil
}

func parseFragment(s string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(s), context)
}

// flattener walks sanitised markup, emitting Markdown for ordinary content
// and dedicated blocks for charts, Markdown islands and server errors.
type flattener struct {
	blocks    []Block
	md        strings.Builder
	listDepth int
}

func (f *flattener) flush() {
	text := strings.TrimSpace(f.md.String())
	f.md.Reset()
	if text == "" {
		return
	}
	f.blocks = append(f.blocks, Block{Kind: MarkdownBlock, Text: text})
}

func (f *flattener) emit(kind BlockKind, text string) {
	f.flush()
	f.blocks = append(f.blocks, Block{Kind: kind, Text: text})
}

func (f *flattener) paragraphBreak() {
	s := f.md.String()
	if s == "" || strings.HasSuffix(s, "\n\n") {
		return
	}
	if strings.HasSuffix(s, "\n") {
		f.md.WriteString("\n")
		return
	}
	f.md.WriteString("\n\n")
}

func (f *flattener) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.walk(c)
	}
}

func (f *flattener) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		text := collapseSpace(n.Data)
		if strings.TrimSpace(text) == "" {
			if text != "" && !strings.HasSuffix(f.md.String(), " ") && !strings.HasSuffix(f.md.String(), "\n") && f.md.Len() > 0 {
				f.md.WriteString(" ")
			}
			return
		}
		f.md.WriteString(escapeMarkdown(text))
		return
	case html.ElementNode:
	default:
		f.walkChildren(n)
		return
	}

	if hasClass(n, "markdown-content") {
		f.emit(MarkdownBlock, markdownIsland(n))
		return
	}
	if hasClass(n, "report-error") {
		f.emit(ErrorBlock, strings.TrimSpace(collapseSpace(textContent(n))))
		return
	}

	switch n.DataAtom {
	case atom.Canvas:
		if config, ok := attr(n, "data-chart-config"); ok && strings.TrimSpace(config) != "" {
			f.emit(ChartBlock, config)
		}
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		f.paragraphBreak()
		f.md.WriteString(strings.Repeat("#", level) + " ")
		f.md.WriteString(escapeMarkdown(strings.TrimSpace(collapseSpace(textContent(n)))))
		f.md.WriteString("\n\n")
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer, atom.Figure, atom.Blockquote:
		f.paragraphBreak()
		if n.DataAtom == atom.Blockquote {
			f.md.WriteString("> ")
		}
		f.walkChildren(n)
		f.paragraphBreak()
	case atom.Br:
		f.md.WriteString("  \n")
	case atom.Hr:
		f.paragraphBreak()
		f.md.WriteString("---\n\n")
	case atom.Strong, atom.B:
		f.wrapInline(n, "**")
	case atom.Em, atom.I:
		f.wrapInline(n, "_")
	case atom.Code:
		f.md.WriteString("`" + strings.ReplaceAll(textContent(n), "`", "'") + "`")
	case atom.Pre:
		f.paragraphBreak()
		f.md.WriteString("```\n" + strings.Trim(textContent(n), "\n") + "\n```\n\n")
	case atom.A:
		f.walkChildren(n)
		if href, ok := attr(n, "href"); ok && href != "" && href != "#" {
			f.md.WriteString(" (" + href + ")")
		}
	case atom.Ul, atom.Ol:
		f.list(n)
	case atom.Li:
		f.walkChildren(n)
	case atom.Table:
		f.table(n)
	case atom.Script, atom.Style, atom.Template:
	default:
		f.walkChildren(n)
	}
}

func (f *flattener) wrapInline(n *html.Node, marker string) {
	inner := strings.TrimSpace(collapseSpace(textContent(n)))
	if inner == "" {
		return
	}
	f.md.WriteString(marker + escapeMarkdown(inner) + marker)
}

func (f *flattener) list(n *html.Node) {
	f.paragraphBreak()
	f.listDepth++
	index := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		index++
		f.md.WriteString(strings.Repeat("  ", f.listDepth-1))
		if n.DataAtom == atom.Ol {
			f.md.WriteString(fmt.Sprintf("%d. ", index))
		} else {
			f.md.WriteString("- ")
		}
		f.walkChildren(c)
		if !strings.HasSuffix(f.md.String(), "\n") {
			f.md.WriteString("\n")
		}
	}
	f.listDepth--
	if f.listDepth == 0 {
		f.md.WriteString("\n")
	}
}

func (f *flattener) table(n *html.Node) {
	var rows [][]string
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom == atom.Tr {
				var cells []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						text := strings.TrimSpace(collapseSpace(textContent(cell)))
						cells = append(cells, strings.ReplaceAll(escapeMarkdown(text), "|", "\\|"))
					}
				}
				rows = append(rows, cells)
				continue
			}
			visit(c)
		}
	}
	visit(n)
	if len(rows) == 0 {
		return
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	f.paragraphBreak()
	for i, r := range rows {
		for len(r) < width {
			r = append(r, "")
		}
		f.md.WriteString("| " + strings.Join(r, " | ") + " |\n")
		if i == 0 {
			f.md.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
		}
	}
	f.md.WriteString("\n")
}

// markdownIsland returns the Markdown source held by a .markdown-content
// element: the text of its <pre> child when present, else its own text.
func markdownIsland(n *html.Node) string {
	if pre := findElement(n, atom.Pre); pre != nil {
		return textContent(pre)
	}
	return textContent(n)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Br {
			b.WriteString("\n")
			continue
		}
		b.WriteString(textContent(c))
	}
	return b.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	value, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(value) {
		if c == class {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '\t' || r == '\r'
	}), " ")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", `\<`,
	">", `\>`,
)

// escapeMarkdown keeps text taken from markup from being read as Markdown.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
