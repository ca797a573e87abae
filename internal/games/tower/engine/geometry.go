package engine

import "math"

// FloorHeight is reported as the tower height when no piece exists.
const FloorHeight = -6.0

// DefaultSegments is the surface profile resolution.
const DefaultSegments = 15

// Geometry derives tower measurements from the registry and the stage.
// Nothing is maintained incrementally except the stage vertex cache.
type Geometry struct {
	pieces   *Registry
	stage    *Silhouette
	segments int

	stageShape []float64 // nil until first computed
}

// NewGeometry creates a geometry view over reg. segments <= 0 uses DefaultSegments.
func NewGeometry(reg *Registry, segments int) *Geometry {
	if segments <= 0 {
		segments = DefaultSegments
	}
	return &Geometry{pieces: reg, segments: segments}
}

// Segments returns the number of surface profile bins.
func (g *Geometry) Segments() int {
	return g.segments
}

// SetStage swaps in a new stage and drops the cached stage samples.
func (g *Geometry) SetStage(s *Silhouette) {
	g.stage = s
	g.Invalidate()
}

// Invalidate drops the cached stage samples.
func (g *Geometry) Invalidate() {
	g.stageShape = nil
}

// HasStage reports whether a stage has been generated.
func (g *Geometry) HasStage() bool {
	return g.stage != nil
}

// TowerHeight returns the highest piece y, or FloorHeight for an empty registry.
func (g *Geometry) TowerHeight() float64 {
	height := FloorHeight
	for _, p := range g.pieces.All() {
		if p.Pos.Y() > height {
			height = p.Pos.Y()
		}
	}
	return height
}

// Bounds returns the horizontal clamp range [-TotalWidth/2, TotalWidth/2].
func (g *Geometry) Bounds() (left, right float64) {
	if g.stage == nil {
		return 0, 0
	}
	half := g.stage.HalfWidth()
	return -half, half
}

// SurfaceProfile bins pieces by x across the stage width and keeps the
// highest y per bin. Empty bins stay 0.
func (g *Geometry) SurfaceProfile() []float64 {
	profile := make([]float64, g.segments)
	if g.stage == nil || g.stage.TotalWidth <= 0 {
		return profile
	}

	width := g.stage.TotalWidth
	for _, p := range g.pieces.All() {
		idx := int(math.Floor((p.Pos.X() + width/2) / width * float64(g.segments)))
		if idx >= 0 && idx < g.segments {
			profile[idx] = math.Max(profile[idx], p.Pos.Y())
		}
	}
	return profile
}

// StageShape returns the y of every stage vertex. The slice is cached until
// the stage changes; callers must not modify it.
func (g *Geometry) StageShape() []float64 {
	if g.stageShape != nil {
		return g.stageShape
	}
	if g.stage == nil {
		return []float64{}
	}

	verts := g.stage.Vertices()
	shape := make([]float64, len(verts))
	for i, v := range verts {
		shape[i] = v.Y()
	}
	g.stageShape = shape
	return shape
}
