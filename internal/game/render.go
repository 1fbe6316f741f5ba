package game

import (
	"fmt"
	"math"

	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/world"
)

// Glyphs used by the top-down view.
const (
	AgentChar    = '^'
	PickupChar   = 'c'
	CollectChar  = '+'
	EdgeChar     = '|'
	BuildingChar = '#'
	LaneChar     = ':'
)

var obstacleGlyphs = []rune{'A', 'O', 'X'}

var decorationGlyphs = []rune{'*', 'i', '=', 'o'}

// View distances in world units.
const (
	viewBehind = 6.0
	viewAhead  = 60.0
)

// viewport maps world coordinates onto the screen below the HUD line.
type viewport struct {
	w, h   int
	top    int
	span   float64 // Half of the lateral extent shown
	agentZ float64
}

func (v viewport) col(x float64) int {
	return int(math.Round((x/v.span + 1) * float64(v.w-1) / 2))
}

// row returns the screen row for z. Far ahead is at the top.
func (v viewport) row(z float64) int {
	rows := v.h - v.top
	frac := (z - (v.agentZ - viewBehind)) / (viewAhead + viewBehind)
	return v.top + rows - 1 - int(math.Round(frac*float64(rows-1)))
}

func (v viewport) visible(z float64) bool {
	return z >= v.agentZ-viewBehind && z <= v.agentZ+viewAhead
}

func (v viewport) plot(dst *core.Screen, pos core.Vec, r rune, c core.Color) {
	if !v.visible(pos.Z) {
		return
	}
	x, y := v.col(pos.X), v.row(pos.Z)
	if x < 0 || x >= v.w || y < v.top || y >= v.h {
		return
	}
	dst.Set(x, y, r, c)
}

// Render draws the run as seen from above into dst.
func (e *Engine) Render(dst *core.Screen) {
	dst.Clear()
	w, h := dst.Width(), dst.Height()
	if w < 10 || h < 5 {
		return
	}

	pos := e.agent.Position()
	vp := viewport{
		w:      w,
		h:      h,
		top:    1,
		span:   e.cfg.World.LateralDistance + 2,
		agentZ: pos.Z,
	}

	e.drawTrack(dst, vp)
	e.drawScenery(dst, vp)
	e.drawHazards(dst, vp)
	vp.plot(dst, pos, AgentChar, agentColor(e.resolver.Slowed()))
	e.drawHUD(dst)

	st := e.State()
	switch {
	case st.Phase == core.PhaseRegistering:
		drawCentered(dst, h/2, "waiting for registration", core.ColorCyan)
	case st.GameOver:
		drawCentered(dst, h/2-1, "GAME OVER", core.ColorBrightRed)
		drawCentered(dst, h/2, st.EndReason, core.ColorWhite)
		drawCentered(dst, h/2+1, fmt.Sprintf("score %d  distance %.0f", st.Score, st.Distance), core.ColorYellow)
		drawCentered(dst, h/2+3, "r restart  q quit", core.ColorGray)
	case st.Paused:
		drawCentered(dst, h/2, "PAUSED", core.ColorYellow)
	}
}

func agentColor(slowed bool) core.Color {
	if slowed {
		return core.ColorOrange
	}
	return core.ColorCyan
}

func (e *Engine) drawTrack(dst *core.Screen, vp viewport) {
	half := e.cfg.World.HalfWidth
	left, right := vp.col(-half), vp.col(half)
	for y := vp.top; y < vp.h; y++ {
		dst.Set(left, y, EdgeChar, core.ColorGray)
		dst.Set(right, y, EdgeChar, core.ColorGray)
	}

	// Segment boundaries scroll with the agent
	for _, seg := range e.streamer.Segments() {
		if vp.visible(seg.Start) {
			y := vp.row(seg.Start)
			for x := left + 1; x < right; x++ {
				dst.Set(x, y, '-', core.ColorGray)
			}
		}
	}
	for z := math.Ceil(vp.agentZ - viewBehind); z <= vp.agentZ+viewAhead; z += 4 {
		vp.plot(dst, core.V(0, 0, z), LaneChar, core.ColorGray)
	}
}

func (e *Engine) drawScenery(dst *core.Screen, vp viewport) {
	for _, s := range e.arena.Scenery(world.SceneryDecoration) {
		g := decorationGlyphs[s.Scenery.Variant%len(decorationGlyphs)]
		vp.plot(dst, s.Pos, g, core.ColorGreen)
	}
	for _, s := range e.arena.Scenery(world.SceneryBuilding) {
		color := core.ColorGray
		if s.Scenery.Height > (e.cfg.World.BuildingMinHeight+e.cfg.World.BuildingMaxHeight)/2 {
			color = core.ColorWhite
		}
		vp.plot(dst, s.Pos, BuildingChar, color)
	}
}

func (e *Engine) drawHazards(dst *core.Screen, vp viewport) {
	for _, hz := range e.arena.Hazards() {
		switch hz.Hazard.Kind {
		case core.KindObstacle:
			g := obstacleGlyphs[hz.Hazard.Variant%len(obstacleGlyphs)]
			vp.plot(dst, hz.Pos, g, core.ColorRed)
		case core.KindPickup:
			if hz.Collecting {
				vp.plot(dst, hz.Pos, CollectChar, core.ColorBrightYellow)
				continue
			}
			vp.plot(dst, hz.Pos, PickupChar, core.ColorYellow)
		}
	}
}

func (e *Engine) drawHUD(dst *core.Screen) {
	st := e.State()
	hud := fmt.Sprintf("score %d  dist %.0fm  speed %.1f  cans %.1fs", st.Score, st.Distance, st.Speed, st.Remaining)
	dst.DrawText(0, 0, hud, core.ColorWhite)
	if st.Warning {
		msg := "FIND A CAN!"
		dst.DrawText(dst.Width()-len(msg), 0, msg, core.ColorBrightRed)
	}
}

func drawCentered(dst *core.Screen, y int, text string, c core.Color) {
	x := (dst.Width() - len(text)) / 2
	if x < 0 {
		x = 0
	}
	dst.DrawText(x, y, text, c)
}
