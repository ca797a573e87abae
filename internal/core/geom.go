// Package core provides fundamental types and utilities for the tower platform.
// It contains no external dependencies (especially no Bubble Tea) to keep game
// logic pure and testable.
package core

import "math"

// Rect represents an axis-aligned box in screen cells.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Viewport maps world coordinates (y up, float units) onto screen cells
// (y down). Terminal cells are roughly twice as tall as they are wide, so
// CellsX is usually about twice CellsY.
type Viewport struct {
	Area    Rect    // Screen region the world is drawn into
	CenterX float64 // World x shown at the horizontal center of Area
	BottomY float64 // World y shown on the bottom row of Area
	CellsX  float64 // Columns per world unit
	CellsY  float64 // Rows per world unit
}

// ToCell converts a world point to a screen cell.
func (v Viewport) ToCell(x, y float64) (int, int) {
	cx := float64(v.Area.X) + float64(v.Area.W)/2 + (x-v.CenterX)*v.CellsX
	cy := float64(v.Area.Bottom()-1) - (y-v.BottomY)*v.CellsY
	return int(math.Floor(cx)), int(math.Round(cy))
}

// ToWorld converts a screen cell center back to world coordinates.
func (v Viewport) ToWorld(col, row int) (float64, float64) {
	x := v.CenterX + (float64(col)+0.5-float64(v.Area.X)-float64(v.Area.W)/2)/v.CellsX
	y := v.BottomY + (float64(v.Area.Bottom()-1)-float64(row))/v.CellsY
	return x, y
}

// TopY returns the world y shown on the top row of Area.
func (v Viewport) TopY() float64 {
	return v.BottomY + float64(v.Area.H-1)/v.CellsY
}
