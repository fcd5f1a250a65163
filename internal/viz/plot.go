package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// Series is one named line of a chart.
type Series struct {
	Name   string
	Values []float64
}

type PlotOptions struct {
	Width, Height int
	Caption       string
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Red,
	asciigraph.Blue,
}

// downsample keeps at most n evenly spaced values so long traces fit the
// chart width.
func downsample(values []float64, n int) []float64 {
	if n < 2 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}

// PlotColumns draws all series on a shared y axis.
func PlotColumns(series []Series, opts PlotOptions) (string, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("nothing to plot")
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 12
	}

	data := make([][]float64, len(series))
	colors := make([]asciigraph.AnsiColor, len(series))
	legend := make([]string, len(series))
	for i, s := range series {
		if len(s.Values) == 0 {
			return "", fmt.Errorf("series %s is empty", s.Name)
		}
		data[i] = downsample(s.Values, opts.Width)
		colors[i] = seriesColors[i%len(seriesColors)]
		legend[i] = colors[i].String() + "━ " + asciigraph.Default.String() + s.Name
	}

	graph := asciigraph.PlotMany(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(opts.Caption),
		asciigraph.SeriesColors(colors...),
	)
	return graph + "\n" + strings.Join(legend, "   "), nil
}
