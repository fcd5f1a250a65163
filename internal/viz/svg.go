package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/blocksim/internal/analysis"
)

var svgPalette = []string{"#00d7d7", "#ff5fd7", "#ffd700", "#5fff5f", "#ff5f5f", "#5f87ff"}

func svgHeader(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

func svgPath(sb *strings.Builder, pts []analysis.Point, minX, maxX, minY, maxY float64, width, height int, stroke string) {
	rangeX, rangeY := maxX-minX, maxY-minY
	sb.WriteString(`<path fill="none" stroke="` + stroke + `" stroke-width="1.5" d="`)
	for i, p := range pts {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		cmd := " L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(sb, "%s%.1f,%.1f", cmd, x, y)
	}
	sb.WriteString("\"/>\n")
}

// TraceSVG draws every series against times on shared axes, one colored
// path per series, with a legend in the top left corner.
func TraceSVG(times []float64, series []Series, width, height int) (string, error) {
	if len(series) == 0 || len(times) < 2 {
		return "", fmt.Errorf("nothing to draw")
	}

	paths := make([][]analysis.Point, len(series))
	var all analysis.PhasePortrait
	for i, s := range series {
		if len(s.Values) != len(times) {
			return "", fmt.Errorf("series %s has %d samples, want %d", s.Name, len(s.Values), len(times))
		}
		paths[i] = make([]analysis.Point, len(times))
		for k, t := range times {
			paths[i][k] = analysis.Point{X: t, Y: s.Values[k]}
		}
		all.Points = append(all.Points, paths[i]...)
	}
	minX, maxX, minY, maxY := all.Bounds()

	var sb strings.Builder
	svgHeader(&sb, width, height)
	for i, s := range series {
		color := svgPalette[i%len(svgPalette)]
		svgPath(&sb, paths[i], minX, maxX, minY, maxY, width, height, color)
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>`+"\n",
			16+14*i, color, s.Name)
	}
	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

// PhaseSVG draws a portrait as a single path.
func PhaseSVG(p *analysis.PhasePortrait, width, height int) (string, error) {
	if len(p.Points) < 2 {
		return "", fmt.Errorf("nothing to draw")
	}
	minX, maxX, minY, maxY := p.Bounds()

	var sb strings.Builder
	svgHeader(&sb, width, height)
	svgPath(&sb, p.Points, minX, maxX, minY, maxY, width, height, svgPalette[0])
	fmt.Fprintf(&sb, `<text x="8" y="16" fill="#888888" font-family="monospace" font-size="12">%s vs %s</text>`+"\n",
		p.YLabel, p.XLabel)
	sb.WriteString("</svg>\n")
	return sb.String(), nil
}
