// Package core provides fundamental types and utilities shared by the engine
// packages. It has no dependency on the terminal layer so simulation code stays
// pure and testable.
package core

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a world-space position. X is lateral, Y is up, Z is the track axis.
type Vec = r3.Vec

// V builds a Vec.
func V(x, y, z float64) Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Within reports whether b lies within radius of a (inclusive).
func Within(a, b Vec, radius float64) bool {
	return r3.Norm2(r3.Sub(a, b)) <= radius*radius
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}

// Uniform returns a float64 uniformly distributed in [lo, hi).
func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// IntBetween returns an int uniformly distributed in [lo, hi].
func IntBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
