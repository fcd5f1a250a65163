package analysis

import "errors"

type Point struct{ X, Y float64 }

// PhasePortrait pairs two recorded signals sample by sample, for example an
// angle against its rate.
type PhasePortrait struct {
	XLabel, YLabel string
	Points         []Point
}

func NewPhasePortrait(xLabel string, x []float64, yLabel string, y []float64) (*PhasePortrait, error) {
	if len(x) != len(y) {
		return nil, errors.New("analysis: phase portrait columns differ in length")
	}
	p := &PhasePortrait{
		XLabel: xLabel,
		YLabel: yLabel,
		Points: make([]Point, len(x)),
	}
	for i := range x {
		p.Points[i] = Point{X: x[i], Y: y[i]}
	}
	return p, nil
}

// Bounds returns the extent of the points padded by 10% on each side. A
// flat axis gets a unit range.
func (p *PhasePortrait) Bounds() (minX, maxX, minY, maxY float64) {
	if len(p.Points) == 0 {
		return -1, 1, -1, 1
	}
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return minX - rangeX*0.1, maxX + rangeX*0.1, minY - rangeY*0.1, maxY + rangeY*0.1
}
