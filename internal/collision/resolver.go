// Package collision turns agent-versus-hazard contacts into gameplay:
// obstacles slow the agent, pickups score and reset the watchdog.
package collision

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/mlange-42/ark/ecs"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/world"
)

var (
	// ErrMissingDirector is returned when no pickup collector is supplied.
	ErrMissingDirector = errors.New("collision: missing director")
	// ErrMissingScorer is returned when no score sink is supplied.
	ErrMissingScorer = errors.New("collision: missing scorer")
)

// Speeder is the part of the agent the slow effect acts on.
type Speeder interface {
	Speed() float64
	SetSpeed(v float64)
}

// Collector is notified when a pickup is collected.
type Collector interface {
	NotifyPickupCollected(now float64)
}

// Scorer receives score deltas.
type Scorer interface {
	AddScore(delta int)
}

// Contact is an agent entering a hazard's volume.
type Contact struct {
	Entity ecs.Entity
	Kind   core.Kind
}

// Stats counts resolved contacts.
type Stats struct {
	ObstacleHits int
	IgnoredHits  int // Obstacle contacts while already slowed
	Collected    int
}

// Resolver applies contact responses.
type Resolver struct {
	cfg             config.CollisionConfig
	collectDuration float64
	agent           Speeder
	director        Collector
	scorer          Scorer
	arena           *world.Arena
	log             *log.Logger

	slowed     bool
	savedSpeed float64
	slowTimer  core.Countdown
	stats      Stats
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.log = core.LoggerOrDiscard(l) }
}

// NewResolver creates a resolver.
func NewResolver(cfg config.RunnerConfig, agent Speeder, director Collector, arena *world.Arena, scorer Scorer, opts ...Option) (*Resolver, error) {
	switch {
	case agent == nil:
		return nil, world.ErrMissingAgent
	case director == nil:
		return nil, ErrMissingDirector
	case arena == nil:
		return nil, world.ErrMissingArena
	case scorer == nil:
		return nil, ErrMissingScorer
	}

	r := &Resolver{
		cfg:             cfg.Collision,
		collectDuration: cfg.Hazards.CollectDuration,
		agent:           agent,
		director:        director,
		scorer:          scorer,
		arena:           arena,
		log:             core.LoggerOrDiscard(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve applies the response for one contact at time now.
func (r *Resolver) Resolve(now float64, c Contact) {
	switch c.Kind {
	case core.KindObstacle:
		r.hitObstacle(now)
	case core.KindPickup:
		r.collect(now, c.Entity)
	}
}

func (r *Resolver) hitObstacle(now float64) {
	if r.slowed {
		r.stats.IgnoredHits++
		return
	}
	r.slowed = true
	r.savedSpeed = r.agent.Speed()
	r.agent.SetSpeed(r.savedSpeed * r.cfg.SlowFactor)
	r.slowTimer.Begin(now, r.cfg.SlowDuration)
	r.stats.ObstacleHits++
	r.log.Debug("obstacle hit", "speed", r.agent.Speed(), "until", r.slowTimer.Deadline())
}

func (r *Resolver) collect(now float64, e ecs.Entity) {
	h, _, ok := r.arena.Hazard(e)
	if !ok || h.Kind != core.KindPickup || r.arena.IsCollecting(e) {
		return
	}
	r.director.NotifyPickupCollected(now)
	r.scorer.AddScore(r.cfg.PickupScore)
	r.arena.BeginCollect(e, r.collectDuration)
	r.stats.Collected++
	r.log.Debug("can collected", "score", r.cfg.PickupScore)
}

// Update restores the saved speed once the slow effect has run its course.
func (r *Resolver) Update(now float64) {
	if r.slowed && r.slowTimer.Expired(now) {
		r.slowed = false
		r.agent.SetSpeed(r.savedSpeed)
		r.log.Debug("speed restored", "speed", r.savedSpeed)
	}
}

// Slowed reports whether the slow effect is active.
func (r *Resolver) Slowed() bool { return r.slowed }

// Stats returns the resolver's counters.
func (r *Resolver) Stats() Stats { return r.stats }
