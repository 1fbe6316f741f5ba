package collision

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/world"
)

// Detector reports agent-hazard overlaps as enter-only contacts, like a
// trigger volume. A hazard that stays in contact is reported once.
type Detector struct {
	arena    *world.Arena
	radius   float64
	touching map[ecs.Entity]struct{}
}

// NewDetector creates a detector for an agent sphere of the given radius.
func NewDetector(arena *world.Arena, agentRadius float64) *Detector {
	return &Detector{
		arena:    arena,
		radius:   agentRadius,
		touching: make(map[ecs.Entity]struct{}),
	}
}

// Detect returns hazards the agent started touching since the last call.
func (d *Detector) Detect(agentPos r3.Vec) []Contact {
	var entered []Contact
	now := make(map[ecs.Entity]struct{}, len(d.touching))

	for _, o := range d.arena.Live(core.KindNone) {
		if !core.Within(agentPos, o.Pos, d.radius+o.Radius) {
			continue
		}
		now[o.Entity] = struct{}{}
		if _, ok := d.touching[o.Entity]; !ok {
			entered = append(entered, Contact{Entity: o.Entity, Kind: o.Kind})
		}
	}
	d.touching = now
	return entered
}

// Touching returns the number of hazards currently overlapping the agent.
func (d *Detector) Touching() int { return len(d.touching) }
