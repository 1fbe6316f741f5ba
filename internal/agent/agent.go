// Package agent implements the kinematic runner and the autopilots that
// steer it in headless runs.
package agent

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
)

// Height is the agent's Y coordinate; hazards spawn at the same height.
const Height = 0.5

const (
	maxLean  = 15.0 // degrees
	leanRate = 5.0
)

// Agent moves forward at a constant speed and steers laterally within a limit.
type Agent struct {
	pos          r3.Vec
	speed        float64
	baseSpeed    float64
	lateralSpeed float64
	limit        float64
	radius       float64
	lean         float64
}

// New creates an agent at the origin.
func New(cfg config.AgentConfig) *Agent {
	return &Agent{
		pos:          core.V(0, Height, 0),
		speed:        cfg.ForwardSpeed,
		baseSpeed:    cfg.ForwardSpeed,
		lateralSpeed: cfg.LateralSpeed,
		limit:        cfg.LateralLimit,
		radius:       cfg.Radius,
	}
}

// Move advances the agent by dt with a lateral intent in [-1, 1].
func (a *Agent) Move(dt, intent float64) {
	intent = core.ClampF(intent, -1, 1)
	a.pos.X = core.ClampF(a.pos.X+intent*a.lateralSpeed*dt, -a.limit, a.limit)
	a.pos.Z += a.speed * dt

	// Lean toward the steering direction, easing back when centered
	target := intent * maxLean
	a.lean += (target - a.lean) * math.Min(1, dt*leanRate)
}

// Position implements world.AgentSource.
func (a *Agent) Position() r3.Vec { return a.pos }

// Speed returns the current forward speed.
func (a *Agent) Speed() float64 { return a.speed }

// SetSpeed sets the forward speed.
func (a *Agent) SetSpeed(v float64) { a.speed = v }

// BaseSpeed returns the configured forward speed.
func (a *Agent) BaseSpeed() float64 { return a.baseSpeed }

// Radius returns the collision radius.
func (a *Agent) Radius() float64 { return a.radius }

// LateralLimit returns the maximum |X|.
func (a *Agent) LateralLimit() float64 { return a.limit }

// Lean returns the cosmetic lean in degrees.
func (a *Agent) Lean() float64 { return a.lean }
