package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"
)

// chartFailedText replaces a chart that could not be drawn.
const chartFailedText = "Failed to load chart."

const (
	chartHeight      = 10
	minChartWidth    = 24
	barGlyph         = "█"
	negativeBarGlyph = "▒"

	// largest magnitude a line chart axis label is printed for
	maxPlotMagnitude = 1e15
)

var (
	errEmptyChartConfig = errors.New("empty chart configuration")
	errNoDatasets       = errors.New("chart has no data.datasets")
	errValueRange       = errors.New("chart values span a range that cannot be drawn")
	errNoLinePoints     = errors.New("line chart has no connected points")
)

// ParseChartConfig decodes a data-chart-config attribute value.
func ParseChartConfig(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errEmptyChartConfig
	}
	var config map[string]any
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, fmt.Errorf("invalid chart configuration: %w", err)
	}
	if config == nil {
		return nil, errEmptyChartConfig
	}
	return config, nil
}

// ApplyChartTheme merges the theme colors into config in place. Only the
// color leaves under options.plugins and options.scales.{x,y} are written;
// every other key is kept. Missing objects are created, but a key that holds
// something other than an object is an error.
func ApplyChartTheme(config map[string]any, theme ChartTheme) error {
	plugins, axis := theme.Options()
	overlay := map[string]any{
		"options": map[string]any{
			"plugins": plugins,
			"scales": map[string]any{
				"x": axis,
				"y": axis,
			},
		},
	}
	return mergeInto(config, overlay, "")
}

func mergeInto(dst, src map[string]any, path string) error {
	for key, value := range src {
		at := key
		if path != "" {
			at = path + "." + key
		}
		nested, isObject := value.(map[string]any)
		if !isObject {
			dst[key] = value
			continue
		}
		existing, present := dst[key]
		if !present || existing == nil {
			existing = map[string]any{}
			dst[key] = existing
		}
		target, ok := existing.(map[string]any)
		if !ok {
			return fmt.Errorf("chart %s is %T, not an object", at, existing)
		}
		if err := mergeInto(target, nested, at); err != nil {
			return err
		}
	}
	return nil
}

type chartSeries struct {
	Label  string
	Values []float64
	Color  string
}

// chartSpec is the part of a themed configuration the terminal can draw.
type chartSpec struct {
	Type      string
	Title     string
	Labels    []string
	Series    []chartSeries
	TextColor string
	TickColor string
	GridColor string
}

func extractChartSpec(config map[string]any) (*chartSpec, error) {
	spec := &chartSpec{Type: "bar"}
	if t, ok := config["type"].(string); ok && t != "" {
		spec.Type = strings.ToLower(t)
	}

	data, ok := config["data"].(map[string]any)
	if !ok {
		return nil, errNoDatasets
	}
	datasets, ok := data["datasets"].([]any)
	if !ok || len(datasets) == 0 {
		return nil, errNoDatasets
	}
	if labels, ok := data["labels"].([]any); ok {
		for _, l := range labels {
			spec.Labels = append(spec.Labels, fmt.Sprint(l))
		}
	}

	for i, raw := range datasets {
		ds, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("dataset %d is not an object", i)
		}
		series := chartSeries{Label: fmt.Sprintf("Series %d", i+1)}
		if label, ok := ds["label"].(string); ok && label != "" {
			series.Label = label
		}
		values, ok := ds["data"].([]any)
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("dataset %q has no data", series.Label)
		}
		finite := 0
		for _, v := range values {
			n := numericValue(v)
			if !math.IsNaN(n) {
				finite++
			}
			series.Values = append(series.Values, n)
		}
		if finite == 0 {
			return nil, fmt.Errorf("dataset %q has no numeric values", series.Label)
		}
		series.Color = firstColor(ds["borderColor"])
		if series.Color == "" {
			series.Color = firstColor(ds["backgroundColor"])
		}
		spec.Series = append(spec.Series, series)
	}

	options, _ := config["options"].(map[string]any)
	plugins, _ := options["plugins"].(map[string]any)
	if title, ok := plugins["title"].(map[string]any); ok {
		if display, set := title["display"].(bool); !set || display {
			spec.Title = titleText(title["text"])
		}
		spec.TextColor, _ = title["color"].(string)
	}
	scales, _ := options["scales"].(map[string]any)
	if y, ok := scales["y"].(map[string]any); ok {
		if ticks, ok := y["ticks"].(map[string]any); ok {
			spec.TickColor, _ = ticks["color"].(string)
		}
		if grid, ok := y["grid"].(map[string]any); ok {
			spec.GridColor, _ = grid["color"].(string)
		}
	}
	return spec, nil
}

// numericValue returns NaN for anything that is not a finite number.
func numericValue(v any) float64 {
	f := math.NaN()
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			f = parsed
		}
	case map[string]any:
		return numericValue(n["y"])
	}
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// valueRange returns the smallest and largest non-NaN value over all series.
func (s *chartSpec) valueRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, series := range s.Series {
		for _, v := range series.Values {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func firstColor(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case []any:
		for _, item := range c {
			if s, ok := item.(string); ok {
				return s
			}
		}
	}
	return ""
}

func titleText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// ChartRenderer draws chart configurations as terminal text.
type ChartRenderer struct{}

// Render themes raw, then draws it width columns wide: line charts as an
// ASCII plot, every other type as horizontal bars.
func (ChartRenderer) Render(raw string, dark bool, width int) (string, error) {
	config, err := ParseChartConfig(raw)
	if err != nil {
		return "", err
	}
	if err := ApplyChartTheme(config, NewChartTheme(dark)); err != nil {
		return "", err
	}
	spec, err := extractChartSpec(config)
	if err != nil {
		return "", err
	}
	if width < minChartWidth {
		width = minChartWidth
	}

	bg := terminalBackground(dark)
	var body string
	if spec.Type == "line" {
		body, err = drawLineChart(spec, bg, width)
	} else {
		body, err = drawBarChart(spec, bg, width)
	}
	if err != nil {
		return "", err
	}

	var parts []string
	if spec.Title != "" {
		parts = append(parts, lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(cssToHex(spec.TextColor, bg))).
			Render(spec.Title))
	}
	parts = append(parts, body)
	if len(spec.Series) > 1 || spec.Type == "line" {
		parts = append(parts, legend(spec, bg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...), nil
}

func drawLineChart(spec *chartSpec, bg colorful.Color, width int) (string, error) {
	if err := checkPlotRange(spec.valueRange()); err != nil {
		return "", err
	}
	drawable := false
	for _, s := range spec.Series {
		drawable = drawable || hasLineSegment(s.Values)
	}
	if !drawable {
		return "", errNoLinePoints
	}
	data := make([][]float64, 0, len(spec.Series))
	colors := make([]asciigraph.AnsiColor, 0, len(spec.Series))
	for _, s := range spec.Series {
		data = append(data, s.Values)
		colors = append(colors, nearestAnsi(s.Color, bg))
	}

	opts := []asciigraph.Option{
		asciigraph.Height(chartHeight),
		asciigraph.Width(width - 10),
		asciigraph.SeriesColors(colors...),
		asciigraph.AxisColor(nearestAnsi(spec.GridColor, bg)),
		asciigraph.LabelColor(nearestAnsi(spec.TickColor, bg)),
	}
	if n := len(spec.Labels); n > 0 {
		caption := spec.Labels[0]
		if n > 1 {
			caption += " … " + spec.Labels[n-1]
		}
		opts = append(opts, asciigraph.Caption(caption), asciigraph.CaptionColor(nearestAnsi(spec.TickColor, bg)))
	}
	return asciigraph.PlotMany(data, opts...), nil
}

// checkPlotRange rejects ranges the plot grid cannot be sized for: the
// axis maps values to rows through int conversions.
func checkPlotRange(lo, hi float64) error {
	span := hi - lo
	if math.IsInf(span, 0) || math.IsNaN(span) {
		return errValueRange
	}
	magnitude := math.Max(math.Abs(lo), math.Abs(hi))
	if magnitude > maxPlotMagnitude {
		return fmt.Errorf("%w: %g", errValueRange, magnitude)
	}
	if span > 0 && magnitude*chartHeight/span > maxPlotMagnitude {
		return fmt.Errorf("%w: %g apart at %g", errValueRange, span, magnitude)
	}
	return nil
}

// hasLineSegment reports whether values keep a finite point once the plot
// interpolates them to its width: an end point or two adjacent values.
func hasLineSegment(values []float64) bool {
	n := len(values)
	if n == 0 {
		return false
	}
	if !math.IsNaN(values[0]) || !math.IsNaN(values[n-1]) {
		return true
	}
	for i := 1; i < n; i++ {
		if !math.IsNaN(values[i-1]) && !math.IsNaN(values[i]) {
			return true
		}
	}
	return false
}

func drawBarChart(spec *chartSpec, bg colorful.Color, width int) (string, error) {
	rows := 0
	for _, s := range spec.Series {
		if len(s.Values) > rows {
			rows = len(s.Values)
		}
	}
	labels := make([]string, rows)
	labelWidth := 0
	for i := range labels {
		if i < len(spec.Labels) {
			labels[i] = spec.Labels[i]
		} else {
			labels[i] = strconv.Itoa(i + 1)
		}
		labelWidth = max(labelWidth, lipgloss.Width(labels[i]))
	}
	labelWidth = min(labelWidth, width/3)

	lo, hi := spec.valueRange()
	peak := math.Max(math.Abs(lo), math.Abs(hi))
	total := 0.0
	for _, s := range spec.Series {
		for _, v := range s.Values {
			if !math.IsNaN(v) {
				total += v
			}
		}
	}
	if math.IsInf(total, 0) {
		total = 0
	}

	valueWidth := 12
	barWidth := width - labelWidth - valueWidth - 2
	if barWidth < 4 {
		barWidth = 4
	}
	share := spec.Type == "pie" || spec.Type == "doughnut"

	labelStyle := lipgloss.NewStyle().
		Width(labelWidth).
		MaxWidth(labelWidth).
		Foreground(lipgloss.Color(cssToHex(spec.TickColor, bg)))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(cssToHex(spec.TickColor, bg)))

	var lines []string
	for i := 0; i < rows; i++ {
		for j, s := range spec.Series {
			label := ""
			if j == 0 {
				label = labels[i]
			}
			if i >= len(s.Values) || math.IsNaN(s.Values[i]) {
				lines = append(lines, labelStyle.Render(label))
				continue
			}
			v := s.Values[i]
			n := 0
			if peak > 0 {
				n = min(max(int(math.Round(math.Abs(v)/peak*float64(barWidth))), 0), barWidth)
			}
			glyph := barGlyph
			if v < 0 {
				glyph = negativeBarGlyph
			}
			bar := lipgloss.NewStyle().
				Foreground(lipgloss.Color(cssToHex(s.Color, bg))).
				Render(strings.Repeat(glyph, n))
			value := formatValue(v)
			if share && total != 0 {
				value = fmt.Sprintf("%s (%.0f%%)", value, v/total*100)
			}
			lines = append(lines, labelStyle.Render(label)+" "+bar+" "+valueStyle.Render(value))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func legend(spec *chartSpec, bg colorful.Color) string {
	entries := make([]string, 0, len(spec.Series))
	text := lipgloss.NewStyle().Foreground(lipgloss.Color(cssToHex(spec.TextColor, bg)))
	for _, s := range spec.Series {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(cssToHex(s.Color, bg))).Render("■")
		entries = append(entries, swatch+" "+text.Render(s.Label))
	}
	return strings.Join(entries, "  ")
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func terminalBackground(dark bool) colorful.Color {
	if dark {
		c, _ := colorful.Hex("#1F1F1F")
		return c
	}
	c, _ := colorful.Hex("#FFFFFF")
	return c
}

var rgbaPattern = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([\d.]+)\s*)?\)$`)

// parseCSSColor understands #rgb, #rrggbb and rgb()/rgba(). A translucent
// color is blended onto bg, since the terminal has no alpha channel.
func parseCSSColor(value string, bg colorful.Color) (colorful.Color, bool) {
	value = strings.TrimSpace(strings.ToLower(value))
	if strings.HasPrefix(value, "#") {
		if len(value) == 4 {
			value = "#" + strings.Repeat(value[1:2], 2) + strings.Repeat(value[2:3], 2) + strings.Repeat(value[3:4], 2)
		}
		c, err := colorful.Hex(value)
		return c, err == nil
	}
	m := rgbaPattern.FindStringSubmatch(value)
	if m == nil {
		return colorful.Color{}, false
	}
	channel := func(s string) float64 {
		n, _ := strconv.Atoi(s)
		return math.Min(float64(n), 255) / 255
	}
	c := colorful.Color{R: channel(m[1]), G: channel(m[2]), B: channel(m[3])}
	if m[4] != "" {
		alpha, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return colorful.Color{}, false
		}
		alpha = math.Max(0, math.Min(alpha, 1))
		c = bg.BlendRgb(c, alpha)
	}
	return c, true
}

// cssToHex turns a CSS color into a hex string lipgloss accepts, or "" when
// it cannot be parsed so the terminal default is used.
func cssToHex(value string, bg colorful.Color) string {
	c, ok := parseCSSColor(value, bg)
	if !ok {
		return ""
	}
	return c.Clamped().Hex()
}

var ansiCandidates = []struct {
	color asciigraph.AnsiColor
	hex   string
}{
	{asciigraph.Black, "#000000"},
	{asciigraph.DimGray, "#696969"},
	{asciigraph.Gray, "#808080"},
	{asciigraph.DarkGray, "#A9A9A9"},
	{asciigraph.Silver, "#C0C0C0"},
	{asciigraph.LightGray, "#D3D3D3"},
	{asciigraph.White, "#FFFFFF"},
	{asciigraph.Red, "#FF0000"},
	{asciigraph.Green, "#008000"},
	{asciigraph.Blue, "#0000FF"},
	{asciigraph.Yellow, "#FFFF00"},
	{asciigraph.Orange, "#FFA500"},
	{asciigraph.Purple, "#800080"},
	{asciigraph.Teal, "#008080"},
	{asciigraph.Cyan, "#00FFFF"},
}

// nearestAnsi maps a CSS color to the closest color asciigraph can emit.
func nearestAnsi(value string, bg colorful.Color) asciigraph.AnsiColor {
	c, ok := parseCSSColor(value, bg)
	if !ok {
		return asciigraph.Default
	}
	best := asciigraph.Default
	bestDistance := math.Inf(1)
	for _, candidate := range ansiCandidates {
		ref, _ := colorful.Hex(candidate.hex)
		if d := c.DistanceLab(ref); d < bestDistance {
			best, bestDistance = candidate.color, d
		}
	}
	return best
}
