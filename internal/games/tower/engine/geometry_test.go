package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestTowerHeight(t *testing.T) {
	reg := NewRegistry()
	g := NewGeometry(reg, 0)

	if h := g.TowerHeight(); h != FloorHeight {
		t.Errorf("Empty height = %v, want %v", h, FloorHeight)
	}

	reg.Add(KindCube, PartyPlayer, mgl64.Vec2{0, 2})
	if h := g.TowerHeight(); h != 2 {
		t.Errorf("Height = %v, want 2", h)
	}

	reg.Add(KindPlank, PartyAgent, mgl64.Vec2{1, 5})
	if h := g.TowerHeight(); h != 5 {
		t.Errorf("Height = %v, want 5", h)
	}

	reg.Add(KindPillar, PartyPlayer, mgl64.Vec2{-1, 3})
	if h := g.TowerHeight(); h != 5 {
		t.Errorf("Height = %v, want 5 (max, not last)", h)
	}
}

func TestSurfaceProfile(t *testing.T) {
	reg := NewRegistry()
	g := NewGeometry(reg, 3)

	if prof := g.SurfaceProfile(); len(prof) != 3 {
		t.Fatalf("Profile length = %d, want 3", len(prof))
	}

	stage := Silhouette{TotalWidth: 3}
	g.SetStage(&stage)

	reg.Add(KindCube, PartyPlayer, mgl64.Vec2{-1.2, 1})
	reg.Add(KindCube, PartyAgent, mgl64.Vec2{-1.0, 2})
	reg.Add(KindCube, PartyPlayer, mgl64.Vec2{1.4, 0.5})
	reg.Add(KindCube, PartyAgent, mgl64.Vec2{5, 9}) // outside the stage

	prof := g.SurfaceProfile()
	want := []float64{2, 0, 0.5}
	for i := range want {
		if prof[i] != want[i] {
			t.Errorf("Bin %d = %v, want %v", i, prof[i], want[i])
		}
	}
}

func TestStageShapeCache(t *testing.T) {
	g := NewGeometry(NewRegistry(), 0)

	shape := g.StageShape()
	if shape == nil || len(shape) != 0 {
		t.Fatalf("StageShape without stage = %v, want empty slice", shape)
	}

	s1 := Silhouette{Triangles: []Triangle{{
		Left:  mgl64.Vec2{-1, 0},
		Right: mgl64.Vec2{1, 0},
		Apex:  mgl64.Vec2{0, -0.75},
	}}, TotalWidth: 2}
	g.SetStage(&s1)

	first := g.StageShape()
	want := []float64{0, 0, -0.75}
	if len(first) != len(want) {
		t.Fatalf("StageShape length = %d, want %d", len(first), len(want))
	}
	for i := range want {
		if first[i] != want[i] {
			t.Errorf("Sample %d = %v, want %v", i, first[i], want[i])
		}
	}
	if second := g.StageShape(); &second[0] != &first[0] {
		t.Error("StageShape was recomputed instead of cached")
	}

	s2 := Silhouette{Triangles: []Triangle{{
		Left:  mgl64.Vec2{-1, 0},
		Right: mgl64.Vec2{1, 0},
		Apex:  mgl64.Vec2{0, -1.25},
	}}, TotalWidth: 2}
	g.SetStage(&s2)
	if got := g.StageShape()[2]; got != -1.25 {
		t.Errorf("Apex sample after new stage = %v, want -1.25", got)
	}
}

func TestBounds(t *testing.T) {
	g := NewGeometry(NewRegistry(), 0)
	if l, r := g.Bounds(); l != 0 || r != 0 {
		t.Errorf("Bounds without stage = (%v, %v), want (0, 0)", l, r)
	}

	g.SetStage(&Silhouette{TotalWidth: 5})
	if l, r := g.Bounds(); l != -2.5 || r != 2.5 {
		t.Errorf("Bounds = (%v, %v), want (-2.5, 2.5)", l, r)
	}
}

func TestRegistryRelease(t *testing.T) {
	reg := NewRegistry()
	a := reg.Add(KindCube, PartyPlayer, mgl64.Vec2{})
	reg.Add(KindPlank, PartyAgent, mgl64.Vec2{})

	var released []PieceID
	reg.Release(func(p *Piece) { released = append(released, p.ID) })

	if reg.Len() != 0 {
		t.Errorf("Len after release = %d, want 0", reg.Len())
	}
	if len(released) != 2 {
		t.Errorf("Released %d pieces, want 2", len(released))
	}

	c := reg.Add(KindCube, PartyPlayer, mgl64.Vec2{})
	if c.ID <= a.ID+1 {
		t.Errorf("ID %d reused after release", c.ID)
	}
	if _, ok := reg.Get(a.ID); ok {
		t.Error("Released piece still reachable")
	}
}

func TestRegistryFirstFallen(t *testing.T) {
	reg := NewRegistry()
	reg.Add(KindCube, PartyPlayer, mgl64.Vec2{})
	b := reg.Add(KindCube, PartyAgent, mgl64.Vec2{})
	c := reg.Add(KindCube, PartyPlayer, mgl64.Vec2{})

	if _, ok := reg.FirstFallen(); ok {
		t.Fatal("FirstFallen on a clean registry")
	}
	c.Fallen = true
	b.Fallen = true
	if p, ok := reg.FirstFallen(); !ok || p.ID != b.ID {
		t.Errorf("FirstFallen = %v, want piece %d", p, b.ID)
	}
}
