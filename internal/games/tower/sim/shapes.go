// Package sim is a small deterministic rigid-body world for tower pieces.
// It implements engine.Physics with axis-aligned landing, stacking and a
// topple test instead of a full collision solver.
package sim

import (
	"math"

	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
)

// Shape is a piece's box in world units.
type Shape struct {
	Width  float64
	Height float64
}

var shapes = map[engine.Kind]Shape{
	engine.KindCube:   {Width: 0.5, Height: 0.5},
	engine.KindPlank:  {Width: 1.2, Height: 0.25},
	engine.KindPillar: {Width: 0.3, Height: 0.9},
	engine.KindSlab:   {Width: 0.9, Height: 0.4},
	engine.KindWedge:  {Width: 0.6, Height: 0.6},
}

// ShapeOf returns the box for a kind. Unknown kinds get a cube.
func ShapeOf(k engine.Kind) Shape {
	if s, ok := shapes[k]; ok {
		return s
	}
	return shapes[engine.KindCube]
}

// Extents returns the half extents of the axis-aligned box enclosing the
// shape rotated by deg degrees.
func (s Shape) Extents(deg float64) (hx, hy float64) {
	rad := deg * math.Pi / 180
	c, sn := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	hx = (s.Width*c + s.Height*sn) / 2
	hy = (s.Width*sn + s.Height*c) / 2
	return hx, hy
}

// Tilt returns how far deg is from the nearest multiple of 90 degrees.
func Tilt(deg float64) float64 {
	m := math.Mod(math.Abs(deg), 90)
	return math.Min(m, 90-m)
}
