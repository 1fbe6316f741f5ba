package config

import "math"

// DifficultyManager tracks the current spawn intervals as the ramp tightens them.
type DifficultyManager struct {
	cfg      DifficultyConfig
	obstacle float64
	pickup   float64
	steps    int
}

// NewDifficultyManager creates a new difficulty manager at the configured base intervals.
func NewDifficultyManager(cfg DifficultyConfig) *DifficultyManager {
	d := &DifficultyManager{cfg: cfg}
	d.Reset()
	return d
}

// Reset restores the base intervals.
func (d *DifficultyManager) Reset() {
	d.obstacle = math.Max(d.cfg.ObstacleInterval, d.cfg.ObstacleFloor)
	d.pickup = math.Max(d.cfg.PickupInterval, d.cfg.PickupFloor)
	d.steps = 0
}

// SetEnabled enables or disables ramp progression.
func (d *DifficultyManager) SetEnabled(enabled bool) {
	d.cfg.Enabled = enabled
}

// IsEnabled returns whether ramp progression is active.
func (d *DifficultyManager) IsEnabled() bool {
	return d.cfg.Enabled && d.cfg.RampStep > 0
}

// ObstacleInterval returns the current seconds between obstacle spawns.
func (d *DifficultyManager) ObstacleInterval() float64 { return d.obstacle }

// PickupInterval returns the current seconds between pickup spawns.
func (d *DifficultyManager) PickupInterval() float64 { return d.pickup }

// RampPeriod returns the seconds between ramp steps.
func (d *DifficultyManager) RampPeriod() float64 { return d.cfg.RampPeriod }

// Steps returns how many ramp steps have been applied.
func (d *DifficultyManager) Steps() int { return d.steps }

// Ramp tightens both intervals, never below their floors. The pickup
// interval moves at half the obstacle step. Returns false when the ramp is disabled.
func (d *DifficultyManager) Ramp() bool {
	if !d.IsEnabled() {
		return false
	}
	d.obstacle = math.Max(d.cfg.ObstacleFloor, d.obstacle-d.cfg.RampStep)
	d.pickup = math.Max(d.cfg.PickupFloor, d.pickup-d.cfg.RampStep*0.5)
	d.steps++
	return true
}

// Penalize lengthens the pickup interval. Used when obstacles crowd out pickups.
func (d *DifficultyManager) Penalize(delta float64) {
	if delta > 0 {
		d.pickup += delta
	}
}
