// Package world holds the spatial state of a run: the entity arena for
// hazards and scenery, the occupancy query, and the segment streamer.
package world

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/canrun/internal/core"
)

// Position is the world-space location of an entity.
type Position struct {
	r3.Vec
}

// Hazard marks an entity that gameplay interacts with.
type Hazard struct {
	Kind    core.Kind
	Radius  float64
	Variant int     // Index into the configured variant table
	Yaw     float64 // Degrees, cosmetic
	Phase   float64 // Bob phase for pickups, cosmetic
}

// Bob returns the cosmetic vertical offset for a pickup.
func (h Hazard) Bob() float64 {
	if h.Kind != core.KindPickup {
		return 0
	}
	return math.Sin(h.Phase*2) * 0.3
}

// Collecting is attached to a pickup once it has been collected. The entity
// no longer counts as live and is destroyed when the animation ends.
type Collecting struct {
	Elapsed  float64
	Duration float64
	Origin   r3.Vec
}

// Progress returns animation progress in [0, 1].
func (c Collecting) Progress() float64 {
	if c.Duration <= 0 {
		return 1
	}
	return core.ClampF(c.Elapsed/c.Duration, 0, 1)
}

// SceneryKind distinguishes segment decorations from standalone buildings.
type SceneryKind uint8

const (
	SceneryDecoration SceneryKind = iota
	SceneryBuilding
)

// Side is the lateral slot of a building.
type Side int8

const (
	SideLeft  Side = -1
	SideNone  Side = 0
	SideRight Side = 1
)

// NoOwner is the Owner of scenery that belongs to no segment.
const NoOwner = -1

// Scenery is cosmetic lateral structure. It never blocks placement.
type Scenery struct {
	Kind    SceneryKind
	Owner   int // Owning segment ID, or NoOwner
	Slot    Side
	Variant int
	Height  float64
}

// Occupant is one result of an occupancy query.
type Occupant struct {
	Entity ecs.Entity
	Kind   core.Kind
	Pos    r3.Vec
	Radius float64
}

// Arena stores hazards and scenery as ECS entities. Handles are generational,
// so a destroyed handle never aliases a later entity.
type Arena struct {
	world *ecs.World

	hazards      *ecs.Map2[Position, Hazard]
	hazardFilter *ecs.Filter2[Position, Hazard]

	scenery       *ecs.Map2[Position, Scenery]
	sceneryFilter *ecs.Filter2[Position, Scenery]

	collecting *ecs.Map[Collecting]
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	w := ecs.NewWorld()
	return &Arena{
		world:         w,
		hazards:       ecs.NewMap2[Position, Hazard](w),
		hazardFilter:  ecs.NewFilter2[Position, Hazard](w),
		scenery:       ecs.NewMap2[Position, Scenery](w),
		sceneryFilter: ecs.NewFilter2[Position, Scenery](w),
		collecting:    ecs.NewMap[Collecting](w),
	}
}

// SpawnHazard creates a hazard entity at pos.
func (a *Arena) SpawnHazard(pos r3.Vec, h Hazard) ecs.Entity {
	return a.hazards.NewEntity(&Position{Vec: pos}, &h)
}

// SpawnScenery creates a scenery entity at pos.
func (a *Arena) SpawnScenery(pos r3.Vec, s Scenery) ecs.Entity {
	return a.scenery.NewEntity(&Position{Vec: pos}, &s)
}

// Alive reports whether the handle still refers to a live entity.
func (a *Arena) Alive(e ecs.Entity) bool {
	return a.world.Alive(e)
}

// Destroy removes the entity. Stale handles are ignored.
func (a *Arena) Destroy(e ecs.Entity) bool {
	if !a.world.Alive(e) {
		return false
	}
	a.world.RemoveEntity(e)
	return true
}

// Hazard returns the hazard and its position for a live handle.
func (a *Arena) Hazard(e ecs.Entity) (Hazard, r3.Vec, bool) {
	if !a.world.Alive(e) || !a.hazards.HasAll(e) {
		return Hazard{}, r3.Vec{}, false
	}
	pos, h := a.hazards.Get(e)
	return *h, pos.Vec, true
}

// BeginCollect removes a pickup from the live set and starts its
// collection animation. Returns false if it is gone or already collecting.
func (a *Arena) BeginCollect(e ecs.Entity, duration float64) bool {
	if !a.world.Alive(e) || !a.hazards.HasAll(e) || a.collecting.Has(e) {
		return false
	}
	pos, _ := a.hazards.Get(e)
	a.collecting.Add(e, &Collecting{Duration: duration, Origin: pos.Vec})
	return true
}

// IsCollecting reports whether the entity is mid-collection.
func (a *Arena) IsCollecting(e ecs.Entity) bool {
	return a.world.Alive(e) && a.collecting.Has(e)
}

// QueryOccupants returns every live hazard within radius of pos (inclusive).
// Scenery and collecting pickups are never reported.
func (a *Arena) QueryOccupants(pos r3.Vec, radius float64) []Occupant {
	var out []Occupant
	query := a.hazardFilter.Query()
	for query.Next() {
		e := query.Entity()
		p, h := query.Get()
		if a.collecting.Has(e) {
			continue
		}
		if core.Within(pos, p.Vec, radius) {
			out = append(out, Occupant{Entity: e, Kind: h.Kind, Pos: p.Vec, Radius: h.Radius})
		}
	}
	return out
}

// Live returns every live hazard of the given kind.
// KindNone returns all live hazards.
func (a *Arena) Live(kind core.Kind) []Occupant {
	var out []Occupant
	query := a.hazardFilter.Query()
	for query.Next() {
		e := query.Entity()
		p, h := query.Get()
		if a.collecting.Has(e) {
			continue
		}
		if kind == core.KindNone || h.Kind == kind {
			out = append(out, Occupant{Entity: e, Kind: h.Kind, Pos: p.Vec, Radius: h.Radius})
		}
	}
	return out
}

// Count returns the number of live hazards of a kind.
func (a *Arena) Count(kind core.Kind) int {
	n := 0
	query := a.hazardFilter.Query()
	for query.Next() {
		_, h := query.Get()
		if h.Kind == kind && !a.collecting.Has(query.Entity()) {
			n++
		}
	}
	return n
}

// CountNear returns the number of live hazards of a kind within dist of center.
func (a *Arena) CountNear(kind core.Kind, center r3.Vec, dist float64) int {
	n := 0
	query := a.hazardFilter.Query()
	for query.Next() {
		p, h := query.Get()
		if h.Kind != kind || a.collecting.Has(query.Entity()) {
			continue
		}
		if core.Within(center, p.Vec, dist) {
			n++
		}
	}
	return n
}

// DestroyBehind removes every hazard whose Z is more than margin behind z,
// including pickups still animating. Returns the removed counts per kind.
func (a *Arena) DestroyBehind(z, margin float64) (obstacles, pickups int) {
	var doomed []ecs.Entity
	query := a.hazardFilter.Query()
	for query.Next() {
		p, h := query.Get()
		if p.Z < z-margin {
			doomed = append(doomed, query.Entity())
			switch h.Kind {
			case core.KindObstacle:
				obstacles++
			case core.KindPickup:
				pickups++
			}
		}
	}
	for _, e := range doomed {
		a.world.RemoveEntity(e)
	}
	return obstacles, pickups
}

// Animate advances cosmetic state: pickup bob and collection animations.
// Pickups whose animation has finished are destroyed.
func (a *Arena) Animate(dt float64) int {
	var done []ecs.Entity
	query := a.hazardFilter.Query()
	for query.Next() {
		e := query.Entity()
		p, h := query.Get()
		if h.Kind != core.KindPickup {
			continue
		}
		h.Phase += dt
		if !a.collecting.Has(e) {
			continue
		}
		c := a.collecting.Get(e)
		c.Elapsed += dt
		// Rise while shrinking
		p.Y = c.Origin.Y + 2*c.Progress()
		if c.Elapsed >= c.Duration {
			done = append(done, e)
		}
	}
	for _, e := range done {
		a.world.RemoveEntity(e)
	}
	return len(done)
}

// Collection returns the collection state of a pickup, if any.
func (a *Arena) Collection(e ecs.Entity) (Collecting, bool) {
	if !a.IsCollecting(e) {
		return Collecting{}, false
	}
	return *a.collecting.Get(e), true
}

// HazardView is a renderable hazard.
type HazardView struct {
	Entity     ecs.Entity
	Hazard     Hazard
	Pos        r3.Vec
	Collecting bool
	Progress   float64
}

// Hazards returns every hazard entity, including collecting pickups.
func (a *Arena) Hazards() []HazardView {
	var out []HazardView
	query := a.hazardFilter.Query()
	for query.Next() {
		e := query.Entity()
		p, h := query.Get()
		v := HazardView{Entity: e, Hazard: *h, Pos: p.Vec}
		if a.collecting.Has(e) {
			v.Collecting = true
			v.Progress = a.collecting.Get(e).Progress()
		}
		out = append(out, v)
	}
	return out
}

// SceneryView is a renderable scenery entity.
type SceneryView struct {
	Entity  ecs.Entity
	Scenery Scenery
	Pos     r3.Vec
}

// Scenery returns every scenery entity of a kind.
func (a *Arena) Scenery(kind SceneryKind) []SceneryView {
	var out []SceneryView
	query := a.sceneryFilter.Query()
	for query.Next() {
		p, s := query.Get()
		if s.Kind == kind {
			out = append(out, SceneryView{Entity: query.Entity(), Scenery: *s, Pos: p.Vec})
		}
	}
	return out
}

// Clear destroys every hazard, live or collecting.
func (a *Arena) Clear() int {
	var all []ecs.Entity
	query := a.hazardFilter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		a.world.RemoveEntity(e)
	}
	return len(all)
}
