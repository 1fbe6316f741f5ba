package world

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultOccupancyRadius is the clearance used when no radius is given.
const DefaultOccupancyRadius = 2.0

// OccupancyQuery answers which hazards occupy a sphere.
type OccupancyQuery interface {
	QueryOccupants(pos r3.Vec, radius float64) []Occupant
}

// IsFree reports whether no hazard lies within radius of pos.
// A non-positive radius uses DefaultOccupancyRadius.
func IsFree(q OccupancyQuery, pos r3.Vec, radius float64) bool {
	if radius <= 0 {
		radius = DefaultOccupancyRadius
	}
	for _, o := range q.QueryOccupants(pos, radius) {
		if o.Kind.IsHazard() {
			return false
		}
	}
	return true
}
