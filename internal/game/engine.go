// Package game wires the world, hazard, collision, and run packages into a
// single fixed-step engine. The platform layer drives it one tick at a time.
package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/canrun/internal/agent"
	"github.com/vovakirdan/canrun/internal/collision"
	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/hazard"
	"github.com/vovakirdan/canrun/internal/registry"
	"github.com/vovakirdan/canrun/internal/run"
	"github.com/vovakirdan/canrun/internal/world"
)

// ErrMissingIdentity is returned when Deps carries no identity.
var ErrMissingIdentity = errors.New("game: missing identity")

// Deps are the engine's external collaborators.
type Deps struct {
	Identity run.Identity   // Required
	Sink     run.ScoreSink  // Optional; scores are discarded when nil
	Pilot    registry.Pilot // Optional; overrides the input's lateral intent
	Advisor  hazard.Advisor // Optional; receives watchdog advisories
	Logger   *log.Logger    // Optional
}

// Engine owns one run.
type Engine struct {
	cfg     config.RunnerConfig
	runtime core.RuntimeConfig
	dt      float64
	log     *log.Logger

	arena     *world.Arena
	agent     *agent.Agent
	streamer  *world.Streamer
	director  *hazard.Director
	resolver  *collision.Resolver
	detector  *collision.Detector
	lifecycle *run.Lifecycle
	pilot     registry.Pilot

	tick      uint64
	clock     float64 // Simulated seconds, frozen while paused
	startedAt float64
	paused    bool
	cleared   bool
}

// New builds an engine. The run starts playing on the first Step after the
// identity reports a profile.
func New(cfg config.RunnerConfig, runtime core.RuntimeConfig, deps Deps) (*Engine, error) {
	if deps.Identity == nil {
		return nil, ErrMissingIdentity
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}

	logger := core.LoggerOrDiscard(deps.Logger)
	e := &Engine{
		cfg:     cfg,
		runtime: runtime,
		dt:      runtime.Dt(),
		log:     logger,
		arena:   world.NewArena(),
		agent:   agent.New(cfg.Agent),
		pilot:   deps.Pilot,
	}

	var err error
	e.streamer, err = world.NewStreamer(cfg.World, e.agent, e.arena,
		rand.New(rand.NewSource(runtime.Seed)),
		world.WithLogger(logger.WithPrefix("world")))
	if err != nil {
		return nil, err
	}

	// The lifecycle does not exist yet; the director reaches it through the engine.
	ender := hazard.EnderFunc(func(reason string) { e.lifecycle.EndRun(reason) })
	dirOpts := []hazard.Option{hazard.WithLogger(logger.WithPrefix("hazard"))}
	if deps.Advisor != nil {
		dirOpts = append(dirOpts, hazard.WithAdvisor(deps.Advisor))
	}
	e.director, err = hazard.NewDirector(cfg, e.streamer, e.arena, ender,
		rand.New(rand.NewSource(runtime.Seed+1)), dirOpts...)
	if err != nil {
		return nil, err
	}

	e.lifecycle, err = run.NewLifecycle(deps.Identity, e.director, deps.Sink,
		run.WithLogger(logger.WithPrefix("run")))
	if err != nil {
		return nil, err
	}

	e.resolver, err = collision.NewResolver(cfg, e.agent, e.director, e.arena, e.lifecycle,
		collision.WithLogger(logger.WithPrefix("collision")))
	if err != nil {
		return nil, err
	}
	e.detector = collision.NewDetector(e.arena, cfg.Agent.Radius)

	if e.pilot != nil {
		e.pilot.Reset(runtime.Seed)
	}
	return e, nil
}

// Step advances the engine by one fixed tick.
func (e *Engine) Step(in core.InputFrame) core.StepResult {
	if in.Has(core.ActionPause) && e.lifecycle.Phase() == core.PhasePlaying {
		e.paused = !e.paused
	}
	if in.Has(core.ActionEnd) {
		e.lifecycle.EndRun(run.ReasonPlayerEnded)
	}
	if e.paused || e.lifecycle.Over() {
		e.finish()
		return core.StepResult{State: e.State()}
	}

	e.tick++
	e.clock += e.dt

	if e.lifecycle.Poll() {
		e.startedAt = e.clock
		e.director.Start(e.clock)
	}
	if e.lifecycle.Phase() != core.PhasePlaying {
		return core.StepResult{State: e.State()}
	}

	intent := in.Intent()
	if e.pilot != nil {
		intent = e.pilot.Steer(e.Observe())
	}
	e.agent.Move(e.dt, intent)

	// One agent snapshot for every consumer this tick
	pos := e.agent.Position()
	e.streamer.Advance(pos)
	e.director.Update(e.clock, pos)

	if !e.lifecycle.Over() {
		for _, c := range e.detector.Detect(pos) {
			e.resolver.Resolve(e.clock, c)
		}
	}
	e.resolver.Update(e.clock)
	e.arena.Animate(e.dt)

	e.finish()
	return core.StepResult{State: e.State()}
}

// finish clears the hazard population once the run is over.
func (e *Engine) finish() {
	if !e.lifecycle.Over() || e.cleared {
		return
	}
	e.cleared = true
	n := e.director.Clear()
	e.log.Debug("hazards cleared", "count", n)
}

// Observe builds what a pilot sees this tick.
func (e *Engine) Observe() core.Observation {
	live := e.arena.Live(core.KindNone)
	hazards := make([]core.HazardView, 0, len(live))
	for _, o := range live {
		hazards = append(hazards, core.HazardView{Kind: o.Kind, Pos: o.Pos, Radius: o.Radius})
	}
	return core.Observation{
		Time:         e.elapsed(),
		Agent:        e.agent.Position(),
		LateralLimit: e.agent.LateralLimit(),
		Hazards:      hazards,
	}
}

func (e *Engine) elapsed() float64 {
	if e.lifecycle.Phase() == core.PhaseRegistering {
		return 0
	}
	return e.clock - e.startedAt
}

// State returns the current run state.
func (e *Engine) State() core.GameState {
	return core.GameState{
		Phase:     e.lifecycle.Phase(),
		Score:     e.lifecycle.Score(),
		GameOver:  e.lifecycle.Over(),
		Paused:    e.paused,
		Elapsed:   e.elapsed(),
		Distance:  e.agent.Position().Z,
		Speed:     e.agent.Speed(),
		Slowed:    e.resolver.Slowed(),
		Remaining: e.remaining(),
		Warning:   e.director.Warning(),
		Obstacles: e.director.ActiveObstacleCount(),
		Pickups:   e.director.ActivePickupCount(),
		EndReason: e.lifecycle.Reason(),
	}
}

func (e *Engine) remaining() float64 {
	if e.lifecycle.Phase() == core.PhaseRegistering {
		return e.cfg.Watchdog.MaxSilence
	}
	return e.director.TimeRemainingBeforeGameOver(e.clock)
}

// End ends the run explicitly. It is a no-op unless the run is playing.
func (e *Engine) End(reason string) {
	e.lifecycle.EndRun(reason)
	e.finish()
}

// Err returns the error from persisting the final score, if any.
func (e *Engine) Err() error { return e.lifecycle.Err() }

// Profile returns the profile the run is credited to.
func (e *Engine) Profile() run.Profile { return e.lifecycle.Profile() }

// Config returns the runner configuration.
func (e *Engine) Config() config.RunnerConfig { return e.cfg }

// Tick returns the number of simulated ticks.
func (e *Engine) Tick() uint64 { return e.tick }

// Summary describes a run for reports.
type Summary struct {
	Score        int
	Distance     float64
	Duration     float64
	Reason       string
	Collected    int
	ObstacleHits int
	Spawned      hazard.Stats
	Difficulty   hazard.Difficulty
}

// Summary returns the run's totals so far.
func (e *Engine) Summary() Summary {
	cs := e.resolver.Stats()
	return Summary{
		Score:        e.lifecycle.Score(),
		Distance:     e.agent.Position().Z,
		Duration:     e.elapsed(),
		Reason:       e.lifecycle.Reason(),
		Collected:    cs.Collected,
		ObstacleHits: cs.ObstacleHits,
		Spawned:      e.director.Stats(),
		Difficulty:   e.director.Difficulty(),
	}
}
