package engine

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle is one tooth of the jagged floor. Left and Right sit on the base
// line; Apex hangs below it.
type Triangle struct {
	Left  mgl64.Vec2
	Right mgl64.Vec2
	Apex  mgl64.Vec2
}

// Width returns the horizontal size of the triangle.
func (t Triangle) Width() float64 {
	return math.Abs(t.Right.X() - t.Left.X())
}

// Depth returns how far the apex hangs below the base line.
func (t Triangle) Depth() float64 {
	return t.Left.Y() - t.Apex.Y()
}

// Silhouette is the generated stage the tower rests on.
type Silhouette struct {
	Triangles  []Triangle
	TotalWidth float64 // Width used for horizontal clamping
	BaseY      float64 // Height of the flat top of the stage
}

// Vertices returns every vertex in mesh order (left, right, apex per triangle).
func (s Silhouette) Vertices() []mgl64.Vec2 {
	out := make([]mgl64.Vec2, 0, len(s.Triangles)*3)
	for _, t := range s.Triangles {
		out = append(out, t.Left, t.Right, t.Apex)
	}
	return out
}

// HalfWidth returns TotalWidth/2.
func (s Silhouette) HalfWidth() float64 {
	return s.TotalWidth / 2
}

// Extent returns the leftmost and rightmost vertex x coordinates.
func (s Silhouette) Extent() (minX, maxX float64) {
	if len(s.Triangles) == 0 {
		return 0, 0
	}
	minX, maxX = math.Inf(1), math.Inf(-1)
	for _, v := range s.Vertices() {
		minX = math.Min(minX, v.X())
		maxX = math.Max(maxX, v.X())
	}
	return minX, maxX
}

// Empty reports whether the silhouette has no triangles.
func (s Silhouette) Empty() bool {
	return len(s.Triangles) == 0
}

// StageParams bounds the random stage.
type StageParams struct {
	MinTriangles  int     // Inclusive lower bound on triangle count
	MaxTriangles  int     // Exclusive upper bound on triangle count
	MaxWidth      float64 // Triangle width is drawn from [MaxWidth/2, MaxWidth)
	MinHeight     float64
	MaxHeight     float64
	OverlapFactor float64 // Fraction of each width shared with the next triangle, in [0,1)
	BaseY         float64

	// ExactCentering centers on the real vertex extent instead of the
	// MaxWidth-based overlap deduction.
	ExactCentering bool
}

// DefaultStageParams returns the stock stage ranges.
func DefaultStageParams() StageParams {
	return StageParams{
		MinTriangles:  5,
		MaxTriangles:  10,
		MaxWidth:      1.0,
		MinHeight:     0.5,
		MaxHeight:     1.5,
		OverlapFactor: 0.2,
		BaseY:         0,
	}
}

// Validate checks the ranges.
func (p StageParams) Validate() error {
	switch {
	case p.MinTriangles < 1:
		return fmt.Errorf("%w: min triangles %d < 1", ErrInvalidStage, p.MinTriangles)
	case p.MaxTriangles < p.MinTriangles:
		return fmt.Errorf("%w: max triangles %d < min %d", ErrInvalidStage, p.MaxTriangles, p.MinTriangles)
	case p.MaxWidth <= 0:
		return fmt.Errorf("%w: max width %.3f must be positive", ErrInvalidStage, p.MaxWidth)
	case p.MinHeight < 0:
		return fmt.Errorf("%w: min height %.3f is negative", ErrInvalidStage, p.MinHeight)
	case p.MinHeight > p.MaxHeight:
		return fmt.Errorf("%w: min height %.3f > max height %.3f", ErrInvalidStage, p.MinHeight, p.MaxHeight)
	case p.OverlapFactor < 0 || p.OverlapFactor >= 1:
		return fmt.Errorf("%w: overlap factor %.3f outside [0,1)", ErrInvalidStage, p.OverlapFactor)
	}
	return nil
}

// GenerateStage builds a random jagged floor centered on x=0.
func GenerateStage(rng *rand.Rand, p StageParams) (Silhouette, error) {
	if err := p.Validate(); err != nil {
		return Silhouette{}, err
	}

	count := p.MinTriangles
	if p.MaxTriangles > p.MinTriangles {
		count = p.MinTriangles + rng.Intn(p.MaxTriangles-p.MinTriangles)
	}

	tris := make([]Triangle, count)
	cursor := 0.0
	sumWidth := 0.0
	for i := range tris {
		height := p.MinHeight + rng.Float64()*(p.MaxHeight-p.MinHeight)
		width := p.MaxWidth/2 + rng.Float64()*(p.MaxWidth/2)

		tris[i] = Triangle{
			Left:  mgl64.Vec2{cursor, p.BaseY},
			Right: mgl64.Vec2{cursor + width, p.BaseY},
			Apex:  mgl64.Vec2{cursor + width/2, p.BaseY - height},
		}
		sumWidth += width
		cursor += width * (1 - p.OverlapFactor)
	}

	total := sumWidth - float64(count-1)*p.MaxWidth*p.OverlapFactor
	shift := total / 2
	if p.ExactCentering {
		// The cursor starts at 0, so the rightmost edge is the true extent.
		total = 0
		for _, t := range tris {
			total = math.Max(total, t.Right.X())
		}
		shift = total / 2
	}

	offset := mgl64.Vec2{shift, 0}
	for i := range tris {
		tris[i].Left = tris[i].Left.Sub(offset)
		tris[i].Right = tris[i].Right.Sub(offset)
		tris[i].Apex = tris[i].Apex.Sub(offset)
	}

	return Silhouette{Triangles: tris, TotalWidth: total, BaseY: p.BaseY}, nil
}

// StageGenerator produces a fresh silhouette for each episode.
type StageGenerator interface {
	Generate() (Silhouette, error)
}

// RandomStage is the StageGenerator backed by GenerateStage.
type RandomStage struct {
	params StageParams
	rng    *rand.Rand
}

// NewRandomStage creates a generator. A nil rng falls back to a fixed seed.
func NewRandomStage(params StageParams, rng *rand.Rand) *RandomStage {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &RandomStage{params: params, rng: rng}
}

// Params returns the generator's ranges.
func (g *RandomStage) Params() StageParams {
	return g.params
}

// Generate implements StageGenerator.
func (g *RandomStage) Generate() (Silhouette, error) {
	return GenerateStage(g.rng, g.params)
}
