package core

// Kind discriminates spatial hazard entities. Collision and occupancy logic
// switch on it.
type Kind uint8

const (
	KindNone Kind = iota
	KindObstacle
	KindPickup
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindObstacle:
		return "obstacle"
	case KindPickup:
		return "pickup"
	default:
		return "none"
	}
}

// IsHazard reports whether the kind blocks placement.
func (k Kind) IsHazard() bool {
	return k == KindObstacle || k == KindPickup
}

// HazardView is a read-only view of a live hazard, used by pilots and renderers.
type HazardView struct {
	Kind   Kind
	Pos    Vec
	Radius float64
}

// Observation is what a pilot sees on a tick.
type Observation struct {
	Time         float64
	Agent        Vec
	LateralLimit float64
	Hazards      []HazardView
}
