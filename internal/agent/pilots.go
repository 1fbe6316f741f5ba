package agent

import (
	"math"

	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/registry"
)

func init() {
	registry.Register("idle", func() registry.Pilot { return &Idle{} })
	registry.Register("greedy", func() registry.Pilot { return NewGreedy() })
	registry.Register("weaver", func() registry.Pilot { return NewWeaver() })
}

// Idle never steers.
type Idle struct{}

func (*Idle) ID() string                     { return "idle" }
func (*Idle) Title() string                  { return "Idle (straight line)" }
func (*Idle) Reset(int64)                    {}
func (*Idle) Steer(core.Observation) float64 { return 0 }

// Greedy chases the nearest can ahead and sidesteps obstacles in its lane.
type Greedy struct {
	LookAhead float64 // How far ahead hazards are considered
	Clearance float64 // Lateral gap kept from obstacles
	Deadband  float64 // Lateral error below which the pilot holds course
}

// NewGreedy returns a greedy pilot with default tuning.
func NewGreedy() *Greedy {
	return &Greedy{LookAhead: 40, Clearance: 1.8, Deadband: 0.15}
}

func (*Greedy) ID() string    { return "greedy" }
func (*Greedy) Title() string { return "Greedy (chase cans, dodge obstacles)" }
func (*Greedy) Reset(int64)   {}

// Steer implements registry.Pilot.
func (g *Greedy) Steer(obs core.Observation) float64 {
	target := obs.Agent.X
	bestDZ := math.Inf(1)
	for _, h := range obs.Hazards {
		dz := h.Pos.Z - obs.Agent.Z
		if h.Kind != core.KindPickup || dz < 0 || dz > g.LookAhead {
			continue
		}
		if dz < bestDZ {
			bestDZ = dz
			target = h.Pos.X
		}
	}

	// Obstacles in the chosen lane push the target aside
	for _, h := range obs.Hazards {
		dz := h.Pos.Z - obs.Agent.Z
		if h.Kind != core.KindObstacle || dz < 0 || dz > g.LookAhead/2 {
			continue
		}
		gap := target - h.Pos.X
		if math.Abs(gap) >= g.Clearance {
			continue
		}
		if gap >= 0 {
			target = h.Pos.X + g.Clearance
		} else {
			target = h.Pos.X - g.Clearance
		}
		if math.Abs(target) > obs.LateralLimit {
			// No room on that side; go around the other way
			target = h.Pos.X - math.Copysign(g.Clearance, target)
		}
	}

	target = core.ClampF(target, -obs.LateralLimit, obs.LateralLimit)
	diff := target - obs.Agent.X
	if math.Abs(diff) < g.Deadband {
		return 0
	}
	return core.ClampF(diff, -1, 1)
}

// Weaver sweeps across the track in a sine wave.
type Weaver struct {
	Period float64 // Seconds per full sweep
	phase  float64
}

// NewWeaver returns a weaver with a 4 second sweep.
func NewWeaver() *Weaver {
	return &Weaver{Period: 4}
}

func (*Weaver) ID() string    { return "weaver" }
func (*Weaver) Title() string { return "Weaver (sine sweep)" }

// Reset offsets the sweep phase by seed so different runs weave differently.
func (w *Weaver) Reset(seed int64) {
	w.phase = float64(seed%360) * math.Pi / 180
}

// Steer implements registry.Pilot.
func (w *Weaver) Steer(obs core.Observation) float64 {
	period := w.Period
	if period <= 0 {
		period = 4
	}
	return math.Sin(2*math.Pi*obs.Time/period + w.phase)
}
