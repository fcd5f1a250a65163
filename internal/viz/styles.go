package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styleSet struct {
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	muted  lipgloss.Style
	good   lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
}

func newStyles(t Theme) styleSet {
	return styleSet{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		label: lipgloss.NewStyle().Foreground(t.Muted).Width(18),
		value: lipgloss.NewStyle().Foreground(t.Text),
		muted: lipgloss.NewStyle().Foreground(t.Muted),
		good:  lipgloss.NewStyle().Foreground(t.Good),
		warn:  lipgloss.NewStyle().Foreground(t.Warn),
		bad:   lipgloss.NewStyle().Foreground(t.Bad).Bold(true),
	}
}

func Header(title string) string {
	return styles.header.Render(title)
}

func KeyValue(label string, value any) string {
	return styles.label.Render(label) + styles.value.Render(fmt.Sprint(value))
}

func Muted(s string) string { return styles.muted.Render(s) }

func Warn(s string) string { return styles.warn.Render(s) }

func Error(s string) string { return styles.bad.Render(s) }

// MetricTable renders one metric per line in name order. Non-finite values
// are highlighted.
func MetricTable(metrics map[string]float64) string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		v := metrics[name]
		text := fmt.Sprintf("%.6g", v)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			text = styles.bad.Render(text)
		} else {
			text = styles.value.Render(text)
		}
		b.WriteString(styles.label.Render(name))
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline compresses values into at most width block characters, sampled
// evenly.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(1, len(values)/width)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(sparkChars)-1))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteRune(sparkChars[idx])
	}
	return styles.good.Render(b.String())
}
