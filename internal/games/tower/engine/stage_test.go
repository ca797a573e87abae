package engine

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func TestGenerateStageBounds(t *testing.T) {
	p := DefaultStageParams()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		s, err := GenerateStage(rng, p)
		if err != nil {
			t.Fatalf("GenerateStage failed: %v", err)
		}
		n := len(s.Triangles)
		if n < p.MinTriangles || n >= p.MaxTriangles {
			t.Fatalf("Triangle count %d outside [%d, %d)", n, p.MinTriangles, p.MaxTriangles)
		}
		for j, tri := range s.Triangles {
			w := tri.Width()
			if w < p.MaxWidth/2-eps || w > p.MaxWidth+eps {
				t.Errorf("Triangle %d width %v outside [%v, %v]", j, w, p.MaxWidth/2, p.MaxWidth)
			}
			d := tri.Depth()
			if d < p.MinHeight-eps || d > p.MaxHeight+eps {
				t.Errorf("Triangle %d depth %v outside [%v, %v]", j, d, p.MinHeight, p.MaxHeight)
			}
			if tri.Apex.Y() >= p.BaseY {
				t.Errorf("Triangle %d apex points up", j)
			}
		}
	}
}

func TestGenerateStageCenteredWithoutOverlap(t *testing.T) {
	p := DefaultStageParams()
	p.OverlapFactor = 0
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		s, err := GenerateStage(rng, p)
		if err != nil {
			t.Fatalf("GenerateStage failed: %v", err)
		}
		minX, maxX := s.Extent()
		if c := (minX + maxX) / 2; math.Abs(c) > 1e-9 {
			t.Fatalf("Extent center = %v, want 0", c)
		}
		if math.Abs((maxX-minX)-s.TotalWidth) > 1e-9 {
			t.Errorf("TotalWidth = %v, extent = %v", s.TotalWidth, maxX-minX)
		}
	}
}

func TestGenerateStageExactCentering(t *testing.T) {
	p := DefaultStageParams()
	p.OverlapFactor = 0.6
	p.ExactCentering = true
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 50; i++ {
		s, err := GenerateStage(rng, p)
		if err != nil {
			t.Fatalf("GenerateStage failed: %v", err)
		}
		minX, maxX := s.Extent()
		if c := (minX + maxX) / 2; math.Abs(c) > 1e-9 {
			t.Fatalf("Extent center = %v, want 0", c)
		}
	}
}

func TestGenerateStageApproximateWidth(t *testing.T) {
	p := DefaultStageParams()
	rng := rand.New(rand.NewSource(3))

	s, err := GenerateStage(rng, p)
	if err != nil {
		t.Fatalf("GenerateStage failed: %v", err)
	}

	sum := 0.0
	for _, tri := range s.Triangles {
		sum += tri.Width()
	}
	want := sum - float64(len(s.Triangles)-1)*p.MaxWidth*p.OverlapFactor
	if math.Abs(s.TotalWidth-want) > 1e-9 {
		t.Errorf("TotalWidth = %v, want %v", s.TotalWidth, want)
	}
	if left := s.Triangles[0].Left.X(); math.Abs(left+want/2) > 1e-9 {
		t.Errorf("First vertex x = %v, want %v", left, -want/2)
	}
}

func TestGenerateStageDeterministic(t *testing.T) {
	a := NewRandomStage(DefaultStageParams(), rand.New(rand.NewSource(5)))
	b := NewRandomStage(DefaultStageParams(), rand.New(rand.NewSource(5)))

	for i := 0; i < 3; i++ {
		sa, _ := a.Generate()
		sb, _ := b.Generate()
		if len(sa.Triangles) != len(sb.Triangles) || sa.TotalWidth != sb.TotalWidth {
			t.Fatalf("Generation %d differs with the same seed", i)
		}
		for j := range sa.Triangles {
			if sa.Triangles[j] != sb.Triangles[j] {
				t.Fatalf("Generation %d triangle %d differs", i, j)
			}
		}
	}
}

func TestGenerateStageFixedCount(t *testing.T) {
	p := DefaultStageParams()
	p.MinTriangles, p.MaxTriangles = 4, 4

	s, err := GenerateStage(rand.New(rand.NewSource(1)), p)
	if err != nil {
		t.Fatalf("GenerateStage failed: %v", err)
	}
	if len(s.Triangles) != 4 {
		t.Errorf("Triangle count = %d, want 4", len(s.Triangles))
	}
}

func TestStageParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StageParams)
	}{
		{"no triangles", func(p *StageParams) { p.MinTriangles = 0 }},
		{"inverted count", func(p *StageParams) { p.MaxTriangles = p.MinTriangles - 1 }},
		{"zero width", func(p *StageParams) { p.MaxWidth = 0 }},
		{"inverted height", func(p *StageParams) { p.MinHeight = p.MaxHeight + 1 }},
		{"negative height", func(p *StageParams) { p.MinHeight = -0.5 }},
		{"overlap one", func(p *StageParams) { p.OverlapFactor = 1 }},
		{"negative overlap", func(p *StageParams) { p.OverlapFactor = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultStageParams()
			tt.mutate(&p)
			_, err := GenerateStage(rand.New(rand.NewSource(1)), p)
			if !errors.Is(err, ErrInvalidStage) {
				t.Errorf("Expected ErrInvalidStage, got %v", err)
			}
			if !IsConfigurationError(err) {
				t.Error("Invalid stage should be a configuration error")
			}
		})
	}

	if err := DefaultStageParams().Validate(); err != nil {
		t.Errorf("Default params invalid: %v", err)
	}
}
