// Package hazard populates the track with obstacles and pickups and runs
// the pickup watchdog that ends a run when the agent goes too long
// without collecting.
package hazard

import (
	"errors"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/world"
)

var (
	// ErrMissingPlacer is returned when no spawn placer is supplied.
	ErrMissingPlacer = errors.New("hazard: missing placer")
	// ErrMissingEnder is returned when no run-ending collaborator is supplied.
	ErrMissingEnder = errors.New("hazard: missing run ender")
)

// ReasonWatchdog is passed to RunEnder when the watchdog expires.
const ReasonWatchdog = "no can collected in time"

// Placer proposes spawn positions and checks them for occupancy.
type Placer interface {
	ObtainSpawnPosition(distanceAhead float64) r3.Vec
	IsPositionFree(pos r3.Vec, radius float64) bool
}

// RunEnder receives the watchdog's terminal signal. Implementations must be idempotent.
type RunEnder interface {
	EndRun(reason string)
}

// EnderFunc adapts a function to RunEnder.
type EnderFunc func(reason string)

// EndRun implements RunEnder.
func (f EnderFunc) EndRun(reason string) { f(reason) }

// Advisor receives the non-fatal watchdog advisory.
type Advisor interface {
	Advise(remaining float64)
}

// Stats counts what the director has done during a run.
type Stats struct {
	ObstaclesSpawned int
	PickupsSpawned   int
	ObstacleSkips    int // Candidate occupied or too many nearby
	PickupSkips      int // Attempts exhausted or too many live
	Penalties        int
	Ramps            int
	Cleaned          int
}

// Difficulty is a read-only copy of the current spawn intervals.
type Difficulty struct {
	ObstacleInterval float64
	PickupInterval   float64
	Steps            int
}

// Director owns the hazard population. Four independent processes
// (obstacle spawn, pickup spawn, difficulty ramp, watchdog advisory)
// are explicit timers advanced by Update.
type Director struct {
	hz      config.HazardConfig
	wd      config.WatchdogConfig
	occRad  float64
	diff    *config.DifficultyManager
	placer  Placer
	arena   *world.Arena
	ender   RunEnder
	advisor Advisor
	rng     *rand.Rand
	log     *log.Logger

	obstacleTimer core.Periodic
	pickupTimer   core.Periodic
	rampTimer     core.Periodic
	watchdogTimer core.Periodic

	lastPickup  float64
	consecutive int
	terminal    bool
	stopped     bool
	warning     bool
	stats       Stats
}

// Option configures a Director.
type Option func(*Director)

// WithAdvisor sets the collaborator that receives watchdog advisories.
func WithAdvisor(a Advisor) Option {
	return func(d *Director) { d.advisor = a }
}

// WithLogger sets the director's logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Director) { d.log = core.LoggerOrDiscard(l) }
}

// NewDirector creates a director. Call Start to arm its processes.
func NewDirector(cfg config.RunnerConfig, placer Placer, arena *world.Arena, ender RunEnder, rng *rand.Rand, opts ...Option) (*Director, error) {
	if placer == nil {
		return nil, ErrMissingPlacer
	}
	if arena == nil {
		return nil, world.ErrMissingArena
	}
	if ender == nil {
		return nil, ErrMissingEnder
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	d := &Director{
		hz:     cfg.Hazards,
		wd:     cfg.Watchdog,
		occRad: cfg.World.OccupancyRadius,
		diff:   config.NewDifficultyManager(cfg.Difficulty),
		placer: placer,
		arena:  arena,
		ender:  ender,
		rng:    rng,
		log:    core.LoggerOrDiscard(nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start arms every process and starts the watchdog window at now.
func (d *Director) Start(now float64) {
	d.lastPickup = now
	d.obstacleTimer.Start(now, d.diff.ObstacleInterval())
	d.pickupTimer.Start(now, d.diff.PickupInterval())
	d.rampTimer.Start(now, d.diff.RampPeriod())
	d.watchdogTimer.Start(now, d.wd.CheckPeriod)
}

// Update advances every process to now. agentPos must be the same
// snapshot the streamer used this tick.
func (d *Director) Update(now float64, agentPos r3.Vec) {
	d.cleanup(agentPos)

	if d.halted() {
		return
	}

	if now-d.lastPickup > d.wd.MaxSilence {
		d.expire(now)
		return
	}

	if d.obstacleTimer.Due(now) {
		d.spawnObstacle(agentPos)
		d.obstacleTimer.Rearm(now, d.diff.ObstacleInterval())
	}
	if d.pickupTimer.Due(now) {
		d.spawnPickup()
		d.pickupTimer.Rearm(now, d.diff.PickupInterval())
	}
	if d.rampTimer.Due(now) {
		d.ramp()
		d.rampTimer.Rearm(now, d.diff.RampPeriod())
	}
	if d.watchdogTimer.Due(now) {
		d.advise(now)
		d.watchdogTimer.Rearm(now, d.wd.CheckPeriod)
	}
}

func (d *Director) halted() bool {
	return d.terminal || d.stopped
}

func (d *Director) spawnObstacle(agentPos r3.Vec) {
	if d.arena.CountNear(core.KindObstacle, agentPos, d.hz.SpawnDistance) >= d.hz.MaxNearbyObstacles {
		d.stats.ObstacleSkips++
		return
	}

	pos := d.placer.ObtainSpawnPosition(d.hz.SpawnDistance)
	if !d.placer.IsPositionFree(pos, d.occRad) {
		d.stats.ObstacleSkips++
		d.log.Debug("obstacle placement skipped", "z", pos.Z)
		return
	}

	variant := d.rng.Intn(len(d.hz.Obstacles))
	d.arena.SpawnHazard(pos, world.Hazard{
		Kind:    core.KindObstacle,
		Radius:  d.hz.Obstacles[variant].Radius,
		Variant: variant,
		Yaw:     d.rng.Float64() * 360,
	})
	d.stats.ObstaclesSpawned++
}

func (d *Director) spawnPickup() {
	if d.arena.Count(core.KindPickup) >= d.hz.MaxLivePickups {
		d.stats.PickupSkips++
		return
	}

	var pos r3.Vec
	placed := false
	for attempt := 0; attempt < d.hz.PickupAttempts; attempt++ {
		ahead := core.Uniform(d.rng, d.hz.MinDistance, d.hz.SpawnDistance)
		pos = d.placer.ObtainSpawnPosition(ahead)
		if d.placer.IsPositionFree(pos, d.occRad) {
			placed = true
			break
		}
	}
	if !placed {
		d.stats.PickupSkips++
		d.log.Debug("pickup placement exhausted", "attempts", d.hz.PickupAttempts)
		return
	}

	d.arena.SpawnHazard(pos, world.Hazard{
		Kind:   core.KindPickup,
		Radius: d.hz.PickupRadius,
		Phase:  d.rng.Float64() * 2 * math.Pi,
	})
	d.stats.PickupsSpawned++
	d.consecutive++

	if d.consecutive >= d.hz.ConsecutiveMax {
		d.consecutive = 0
		d.diff.Penalize(d.hz.ConsecutivePenalty)
		d.stats.Penalties++
		d.log.Debug("pickup density eased", "pickup_interval", d.diff.PickupInterval())
	}
}

func (d *Director) ramp() {
	if !d.diff.Ramp() {
		return
	}
	d.stats.Ramps++
	d.log.Info("difficulty increased",
		"obstacle_interval", d.diff.ObstacleInterval(),
		"pickup_interval", d.diff.PickupInterval())
}

func (d *Director) advise(now float64) {
	remaining := d.wd.MaxSilence - (now - d.lastPickup)
	d.warning = remaining > 0 && remaining <= d.wd.WarnWithin
	if !d.warning {
		return
	}
	d.log.Debug("can watchdog advisory", "remaining", remaining)
	if d.advisor != nil {
		d.advisor.Advise(remaining)
	}
}

func (d *Director) expire(now float64) {
	d.terminal = true
	d.warning = false
	d.stopTimers()
	d.log.Info("watchdog expired", "silence", now-d.lastPickup, "max_silence", d.wd.MaxSilence)
	d.ender.EndRun(ReasonWatchdog)
}

// cleanup destroys hazards that fell too far behind the agent.
func (d *Director) cleanup(agentPos r3.Vec) {
	obs, picks := d.arena.DestroyBehind(agentPos.Z, d.hz.CleanupBehind)
	d.stats.Cleaned += obs + picks
}

func (d *Director) stopTimers() {
	d.obstacleTimer.Stop()
	d.pickupTimer.Stop()
	d.rampTimer.Stop()
	d.watchdogTimer.Stop()
}

// NotifyPickupCollected resets the watchdog window and the consecutive counter.
func (d *Director) NotifyPickupCollected(now float64) {
	if d.terminal {
		return
	}
	d.lastPickup = now
	d.consecutive = 0
	d.warning = false
}

// StopGeneration halts every process. Hazards already placed remain
// until cleanup or Clear.
func (d *Director) StopGeneration() {
	if d.stopped {
		return
	}
	d.stopped = true
	d.warning = false
	d.stopTimers()
	d.log.Debug("generation stopped")
}

// Clear destroys every hazard. Used when the run ends.
func (d *Director) Clear() int {
	return d.arena.Clear()
}

// ActiveObstacleCount returns the number of live obstacles.
func (d *Director) ActiveObstacleCount() int {
	return d.arena.Count(core.KindObstacle)
}

// ActivePickupCount returns the number of live pickups.
func (d *Director) ActivePickupCount() int {
	return d.arena.Count(core.KindPickup)
}

// TimeRemainingBeforeGameOver returns seconds left in the watchdog window.
func (d *Director) TimeRemainingBeforeGameOver(now float64) float64 {
	if d.terminal {
		return 0
	}
	return math.Max(0, d.wd.MaxSilence-(now-d.lastPickup))
}

// Warning reports whether the last advisory check found the window nearly spent.
func (d *Director) Warning() bool { return d.warning }

// Terminal reports whether the watchdog has fired.
func (d *Director) Terminal() bool { return d.terminal }

// Stopped reports whether generation was halted externally.
func (d *Director) Stopped() bool { return d.stopped }

// Consecutive returns the current consecutive pickup counter.
func (d *Director) Consecutive() int { return d.consecutive }

// Difficulty returns the current spawn intervals.
func (d *Director) Difficulty() Difficulty {
	return Difficulty{
		ObstacleInterval: d.diff.ObstacleInterval(),
		PickupInterval:   d.diff.PickupInterval(),
		Steps:            d.diff.Steps(),
	}
}

// Stats returns the director's counters.
func (d *Director) Stats() Stats { return d.stats }
