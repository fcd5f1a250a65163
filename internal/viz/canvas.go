package viz

import (
	"strings"

	"github.com/san-kum/blocksim/internal/analysis"
)

const brailleBlank = 0x2800

// Dot bits of a Braille cell, indexed [row][col] over its 2x4 dots.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille cells. Pixel coordinates run over
// (Width*2) x (Height*4) dots with y growing downwards.
type Canvas struct {
	Width, Height int
	grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, grid: make([][]rune, h)}
	for i := range c.grid {
		c.grid[i] = []rune(strings.Repeat(string(rune(brailleBlank)), w))
	}
	return c
}

func (c *Canvas) cell(x, y int) (row, col int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	row, col = y/4, x/2
	return row, col, row < c.Height && col < c.Width
}

func (c *Canvas) Set(x, y int) {
	if row, col, ok := c.cell(x, y); ok {
		c.grid[row][col] |= dotBits[y%4][x%2]
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, ok := c.cell(x, y)
	return ok && c.grid[row][col]&dotBits[y%4][x%2] != 0
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Phase draws a portrait as a connected trajectory on a w x h cell canvas,
// with the axes where they cross the visible area.
func Phase(p *analysis.PhasePortrait, w, h int) string {
	c := NewCanvas(w, h)
	if len(p.Points) == 0 {
		return c.String()
	}

	minX, maxX, minY, maxY := p.Bounds()
	px := func(x float64) int { return int((x - minX) / (maxX - minX) * float64(w*2-1)) }
	py := func(y float64) int { return h*4 - 1 - int((y-minY)/(maxY-minY)*float64(h*4-1)) }

	if minX <= 0 && maxX >= 0 {
		c.DrawLine(px(0), 0, px(0), h*4-1)
	}
	if minY <= 0 && maxY >= 0 {
		c.DrawLine(0, py(0), w*2-1, py(0))
	}

	prev := p.Points[0]
	c.Set(px(prev.X), py(prev.Y))
	for _, pt := range p.Points[1:] {
		c.DrawLine(px(prev.X), py(prev.Y), px(pt.X), py(pt.Y))
		prev = pt
	}

	caption := Muted(p.YLabel + " vs " + p.XLabel)
	return styles.value.Render(c.String()) + caption + "\n"
}
