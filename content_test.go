package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     PromptResponse
		expected ContentKind
	}{
		{name: "plain text", resp: PromptResponse{Response: "Sales grew"}, expected: MarkdownText},
		{name: "markdown heading", resp: PromptResponse{Response: "# Report\n\n* item"}, expected: MarkdownText},
		{name: "markup", resp: PromptResponse{Response: "<div><p>Sales</p></div>"}, expected: TrustedMarkup},
		{name: "markup with leading space", resp: PromptResponse{Response: "  \n<p>Sales</p>"}, expected: TrustedMarkup},
		{name: "angle bracket that is not a tag", resp: PromptResponse{Response: "< 5 incidents"}, expected: MarkdownText},
		{name: "format html wins over text", resp: PromptResponse{Response: "Sales grew", Format: "html"}, expected: TrustedMarkup},
		{name: "format markdown wins over tags", resp: PromptResponse{Response: "<b>bold</b>", Format: "markdown"}, expected: MarkdownText},
		{name: "format is case insensitive", resp: PromptResponse{Response: "x", Format: " HTML "}, expected: TrustedMarkup},
		{name: "unknown format falls back to sniffing", resp: PromptResponse{Response: "<p>x</p>", Format: "pdf"}, expected: TrustedMarkup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyResponse(&tt.resp))
		})
	}
}

func TestContentKindString(t *testing.T) {
	assert.Equal(t, "markup", TrustedMarkup.String())
	assert.Equal(t, "markdown", MarkdownText.String())
}

func TestBuildDocumentMarkdownIsSingleBlock(t *testing.T) {
	doc, err := BuildDocument(MarkdownText, "<script>alert(1)</script> **hi**")
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, MarkdownBlock, doc.Blocks[0].Kind)
	assert.Equal(t, "<script>alert(1)</script> **hi**", doc.Blocks[0].Text)
}

func TestBuildDocumentStripsScripts(t *testing.T) {
	doc, err := BuildDocument(TrustedMarkup, `<p onclick="steal()">Revenue<script>alert(1)</script></p><style>p{}</style>`)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "Revenue", doc.Blocks[0].Text)
	assert.NotContains(t, doc.Blocks[0].Text, "alert")
}

func TestBuildDocumentFlattensMarkup(t *testing.T) {
	markup := `<h2>Summary</h2>
<p>Revenue <strong>grew</strong> by <em>12%</em>.</p>
<ul><li>North</li><li>South</li></ul>
<ol><li>First</li><li>Second</li></ol>
<table><tr><th>Region</th><th>Sales</th></tr><tr><td>North</td><td>120</td></tr></table>
<p><a href="https://example.com/r">full report</a></p>`

	doc, err := BuildDocument(TrustedMarkup, markup)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	text := doc.Blocks[0].Text

	assert.Contains(t, text, "## Summary")
	assert.Contains(t, text, "Revenue **grew** by _12%_.")
	assert.Contains(t, text, "- North\n- South")
	assert.Contains(t, text, "1. First\n2. Second")
	assert.Contains(t, text, "| Region | Sales |\n| --- | --- |\n| North | 120 |")
	assert.Contains(t, text, "full report (https://example.com/r)")
}

func TestBuildDocumentEscapesMarkupText(t *testing.T) {
	doc, err := BuildDocument(TrustedMarkup, `<p>2 * 3 = 6 and a_b</p>`)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, `2 \* 3 = 6 and a\_b`, doc.Blocks[0].Text)
}

func TestBuildDocumentChartsAndIslands(t *testing.T) {
	markup := `<div class="report">` +
		`<div class="markdown-content"><pre>## Sales

**bold** text</pre></div>` +
		`<canvas data-chart-config="{&quot;type&quot;:&quot;bar&quot;}"></canvas>` +
		`<p>Between</p>` +
		`<canvas data-chart-config="{}"></canvas>` +
		`<div class="report-error">Query  timed out</div>` +
		`</div>`

	doc, err := BuildDocument(TrustedMarkup, markup)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 5)

	assert.Equal(t, MarkdownBlock, doc.Blocks[0].Kind)
	assert.Equal(t, "## Sales\n\n**bold** text", doc.Blocks[0].Text)

	assert.Equal(t, ChartBlock, doc.Blocks[1].Kind)
	assert.Equal(t, `{"type":"bar"}`, doc.Blocks[1].Text)

	assert.Equal(t, MarkdownBlock, doc.Blocks[2].Kind)
	assert.Equal(t, "Between", doc.Blocks[2].Text)

	assert.Equal(t, ChartBlock, doc.Blocks[3].Kind)
	assert.Equal(t, ErrorBlock, doc.Blocks[4].Kind)
	assert.Equal(t, "Query  timed out", doc.Blocks[4].Text)

	assert.Equal(t, 2, doc.ChartCount())
}

func TestBuildDocumentCanvasWithoutConfigIsDropped(t *testing.T) {
	tests := []struct {
		name   string
		canvas string
	}{
		{name: "no attribute", canvas: `<canvas width="10"></canvas>`},
		{name: "empty attribute", canvas: `<canvas data-chart-config=""></canvas>`},
		{name: "blank attribute", canvas: `<canvas data-chart-config="  "></canvas>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := BuildDocument(TrustedMarkup, `<p>Intro</p>`+tt.canvas)
			require.NoError(t, err)
			assert.Equal(t, 0, doc.ChartCount())
			require.Len(t, doc.Blocks, 1)
			assert.Equal(t, "Intro", doc.Blocks[0].Text)
		})
	}
}

func TestBuildDocumentEscapesHeadings(t *testing.T) {
	doc, err := BuildDocument(TrustedMarkup, `<h2>*Q4* totals_final</h2>`)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, `## \*Q4\* totals\_final`, doc.Blocks[0].Text)
}
