package tower

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/vovakirdan/tui-tower/internal/core"
	"github.com/vovakirdan/tui-tower/internal/games/tower/engine"
	"github.com/vovakirdan/tui-tower/internal/games/tower/sim"
)

// Visual characters for rendering
const (
	StageChar  = '▓'
	PieceChar  = '█'
	FallenChar = '▒'
	GuideChar  = '┊'
)

// Visible world span, in units, from the bottom of the play area to the top.
const worldRows = 10.0

// sceneView implements engine.View for the terminal renderer.
type sceneView struct {
	camera    float64
	hidden    map[engine.PieceID]bool
	indicator engine.Party
	rotate    bool
	banner    *engine.GameOutcome
}

func newSceneView() *sceneView {
	return &sceneView{hidden: make(map[engine.PieceID]bool)}
}

func (v *sceneView) ShiftCamera(dy float64) { v.camera += dy }
func (v *sceneView) ResetCamera()           { v.camera = 0 }

func (v *sceneView) SetPieceVisible(id engine.PieceID, visible bool) {
	if visible {
		delete(v.hidden, id)
	} else {
		v.hidden[id] = true
	}
}

func (v *sceneView) SetTurnIndicator(p engine.Party) { v.indicator = p }
func (v *sceneView) SetRotateEnabled(on bool)        { v.rotate = on }

func (v *sceneView) ShowGameOver(out engine.GameOutcome) {
	v.banner = &out
}

func (v *sceneView) HideGameOver() {
	v.banner = nil
	clear(v.hidden)
}

// viewport maps the world onto the play area between the HUD and help rows.
func (g *Game) viewport(w, h int) core.Viewport {
	area := core.NewRect(0, 1, w, max(h-2, 1))
	cellsY := math.Max(float64(area.H)/worldRows, 1)
	return core.Viewport{
		Area:    area,
		CenterX: 0,
		BottomY: -2 + g.view.camera,
		CellsX:  2 * cellsY,
		CellsY:  cellsY,
	}
}

// Render draws the current game state to the screen.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()
	w, h := dst.Width(), dst.Height()

	if g.sess == nil {
		msg := "no game running"
		if g.err != nil {
			msg = g.err.Error()
		}
		if len(msg) > w-6 && w > 9 {
			msg = msg[:w-9] + "..."
		}
		g.drawCenteredMessage(dst, "CONFIG ERROR", msg)
		return
	}

	eng := g.sess.eng
	vp := g.viewport(w, h)

	g.drawStage(dst, vp, eng.Stage())
	g.drawGuide(dst, vp, eng)
	for _, p := range eng.Pieces().All() {
		if g.view.hidden[p.ID] {
			continue
		}
		g.drawPiece(dst, vp, p, p == eng.Current())
	}

	g.drawHUD(dst, eng)
	g.drawHelp(dst, h-1)

	if g.paused {
		g.drawCenteredMessage(dst, "PAUSED", "Press P to resume")
		return
	}

	if g.view.banner != nil {
		title := "GAME OVER"
		switch g.view.banner.Banner {
		case engine.BannerWin:
			title = "YOU WIN!"
		case engine.BannerLose:
			title = "YOU LOSE"
		}
		placed := g.sess.restingPieces(engine.PartyPlayer)
		g.drawCenteredMessage(dst, title, fmt.Sprintf("%d placed  |  Press R to restart", placed))
	}
}

// drawStage fills every cell whose center lies inside a stage triangle.
func (g *Game) drawStage(dst *core.Screen, vp core.Viewport, stage engine.Silhouette) {
	if stage.Empty() {
		return
	}
	minX, maxX := stage.Extent()
	c0, _ := vp.ToCell(minX, 0)
	c1, _ := vp.ToCell(maxX, 0)
	for row := vp.Area.Y; row < vp.Area.Bottom(); row++ {
		for col := max(c0, 0); col <= min(c1, dst.Width()-1); col++ {
			x, y := vp.ToWorld(col, row)
			pt := mgl64.Vec2{x, y}
			for _, t := range stage.Triangles {
				if inTriangle(pt, t) {
					dst.SetColor(col, row, StageChar, core.ColorGray)
					break
				}
			}
		}
	}
}

// drawGuide marks the column under the current piece down to the tower.
func (g *Game) drawGuide(dst *core.Screen, vp core.Viewport, eng *engine.Engine) {
	p := eng.Current()
	if p == nil || g.view.hidden[p.ID] {
		return
	}
	_, hy := sim.ShapeOf(p.Kind).Extents(p.Rotation)
	col, top := vp.ToCell(p.Pos.X(), p.Pos.Y()-hy)
	_, bottom := vp.ToCell(p.Pos.X(), math.Max(eng.RestingHeight(), eng.Stage().BaseY))
	for row := top + 1; row < bottom && row < vp.Area.Bottom(); row++ {
		if row >= vp.Area.Y && dst.Get(col, row) == ' ' {
			dst.SetColor(col, row, GuideChar, core.ColorGray)
		}
	}
}

// drawPiece rasterizes a rotated rectangle by testing cell centers in the
// piece's local frame.
func (g *Game) drawPiece(dst *core.Screen, vp core.Viewport, p *engine.Piece, current bool) {
	shape := sim.ShapeOf(p.Kind)
	hx, hy := shape.Extents(p.Rotation)

	c0, r0 := vp.ToCell(p.Pos.X()-hx, p.Pos.Y()+hy)
	c1, r1 := vp.ToCell(p.Pos.X()+hx, p.Pos.Y()-hy)

	rot := mgl64.Rotate2D(-mgl64.DegToRad(p.Rotation))
	halfW, halfH := shape.Width/2, shape.Height/2

	ch, color := PieceChar, pieceColor(p, current)
	if p.Fallen {
		ch = FallenChar
	}

	drawn := false
	for row := max(r0, vp.Area.Y); row <= min(r1, vp.Area.Bottom()-1); row++ {
		for col := max(c0, 0); col <= min(c1, dst.Width()-1); col++ {
			x, y := vp.ToWorld(col, row)
			local := rot.Mul2x1(mgl64.Vec2{x - p.Pos.X(), y - p.Pos.Y()})
			if math.Abs(local.X()) <= halfW && math.Abs(local.Y()) <= halfH {
				dst.SetColor(col, row, ch, color)
				drawn = true
			}
		}
	}

	// Thin pieces can fall between cell centers; keep at least their center.
	if !drawn {
		col, row := vp.ToCell(p.Pos.X(), p.Pos.Y())
		if vp.Area.Contains(col, row) {
			dst.SetColor(col, row, ch, color)
		}
	}
}

func pieceColor(p *engine.Piece, current bool) core.Color {
	c := core.ColorMagenta
	switch {
	case p.Fallen:
		return core.ColorRed
	case p.Owner == engine.PartyPlayer:
		c = core.ColorCyan
	}
	if current {
		return c.Bright()
	}
	return c
}

// drawHUD renders the status line.
func (g *Game) drawHUD(dst *core.Screen, eng *engine.Engine) {
	turn := "YOUR TURN"
	color := core.ColorBrightCyan
	if g.view.indicator == engine.PartyAgent {
		turn = "AGENT"
		color = core.ColorBrightMagenta
	}

	height := eng.RestingHeight()
	if height <= engine.FloorHeight {
		height = 0
	}
	status := fmt.Sprintf(" TOWER  Turn: %d  Height: %.1f  Placed: %d",
		eng.Turns()+1, height, g.sess.restingPieces(engine.PartyPlayer))
	dst.DrawText(0, 0, status)

	right := "[" + turn + "]"
	if rem := eng.TurnRemaining(); eng.Current() != nil && !math.IsInf(rem, 1) {
		right = fmt.Sprintf("%.1fs %s", math.Max(rem, 0), right)
	}
	dst.DrawTextColor(dst.Width()-len([]rune(right))-1, 0, right, color)
}

// drawHelp renders the key hints on the bottom row.
func (g *Game) drawHelp(dst *core.Screen, y int) {
	help := "←/→ move  z/x rotate  space drop  p pause  q quit"
	if !g.view.rotate && g.view.banner == nil {
		help = "agent is building...  p pause  q quit"
	}
	dst.DrawTextCenteredColor(y, help, core.ColorGray)
}

// drawCenteredMessage draws a message box in the center of the screen.
func (g *Game) drawCenteredMessage(dst *core.Screen, title, subtitle string) {
	w := dst.Width()
	h := dst.Height()

	// Calculate box dimensions
	boxW := max(len([]rune(title)), len([]rune(subtitle))) + 4
	boxH := 5
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	// Draw box
	dst.DrawRect(core.NewRect(boxX, boxY, boxW, boxH), ' ')
	dst.DrawBox(core.NewRect(boxX, boxY, boxW, boxH))

	// Draw text
	titleX := boxX + (boxW-len([]rune(title)))/2
	dst.DrawTextColor(titleX, boxY+1, title, core.ColorBrightYellow)

	subtitleX := boxX + (boxW-len([]rune(subtitle)))/2
	dst.DrawText(subtitleX, boxY+3, subtitle)
}

// inTriangle reports whether p lies inside t, edges included.
func inTriangle(p mgl64.Vec2, t engine.Triangle) bool {
	d1 := cross(p, t.Left, t.Right)
	d2 := cross(p, t.Right, t.Apex)
	d3 := cross(p, t.Apex, t.Left)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func cross(p, a, b mgl64.Vec2) float64 {
	return (p.X()-b.X())*(a.Y()-b.Y()) - (a.X()-b.X())*(p.Y()-b.Y())
}
