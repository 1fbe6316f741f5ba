// Package run implements the Registering -> Playing -> GameOver state
// machine and the collaborator contracts for identity and scoring.
package run

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/canrun/internal/core"
)

var (
	// ErrMissingIdentity is returned when no identity collaborator is supplied.
	ErrMissingIdentity = errors.New("run: missing identity")
	// ErrMissingDirector is returned when no hazard generator is supplied.
	ErrMissingDirector = errors.New("run: missing director")
)

// ReasonPlayerEnded is the end reason for an explicit quit.
const ReasonPlayerEnded = "run ended by player"

// Profile is the registered player a run is credited to.
type Profile struct {
	ID        int64
	Name      string
	Email     string
	BestScore int
}

// Identity reports the current profile once registration is complete.
type Identity interface {
	CurrentProfile() (Profile, bool)
}

// ScoreSink receives score deltas and, exactly once, the final score.
type ScoreSink interface {
	AddScore(delta int)
	EndRun(finalScore int) error
}

// Generator is the hazard generation the lifecycle shuts down on GameOver.
type Generator interface {
	StopGeneration()
}

// Lifecycle drives a single run.
type Lifecycle struct {
	identity Identity
	gen      Generator
	sink     ScoreSink
	log      *log.Logger

	phase   core.Phase
	profile Profile
	score   int
	reason  string
	err     error
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithLogger sets the lifecycle's logger.
func WithLogger(l *log.Logger) Option {
	return func(lc *Lifecycle) { lc.log = core.LoggerOrDiscard(l) }
}

// NewLifecycle creates a lifecycle in the Registering phase. A nil sink
// discards scores.
func NewLifecycle(identity Identity, gen Generator, sink ScoreSink, opts ...Option) (*Lifecycle, error) {
	if identity == nil {
		return nil, ErrMissingIdentity
	}
	if gen == nil {
		return nil, ErrMissingDirector
	}
	if sink == nil {
		sink = NopSink{}
	}
	lc := &Lifecycle{
		identity: identity,
		gen:      gen,
		sink:     sink,
		log:      core.LoggerOrDiscard(nil),
		phase:    core.PhaseRegistering,
	}
	for _, opt := range opts {
		opt(lc)
	}
	return lc, nil
}

// Poll checks the identity collaborator while registering. It returns
// true on the tick the run starts playing.
func (lc *Lifecycle) Poll() bool {
	if lc.phase != core.PhaseRegistering {
		return false
	}
	p, ok := lc.identity.CurrentProfile()
	if !ok {
		return false
	}
	lc.profile = p
	lc.phase = core.PhasePlaying
	lc.log.Info("run started", "player", p.Name)
	return true
}

// AddScore accumulates score while playing and forwards it to the sink.
func (lc *Lifecycle) AddScore(delta int) {
	if lc.phase != core.PhasePlaying {
		return
	}
	lc.score += delta
	lc.sink.AddScore(delta)
}

// EndRun moves Playing to GameOver. Later calls, and calls outside
// Playing, are ignored.
func (lc *Lifecycle) EndRun(reason string) {
	if lc.phase != core.PhasePlaying {
		return
	}
	lc.phase = core.PhaseGameOver
	lc.reason = reason
	lc.gen.StopGeneration()

	if err := lc.sink.EndRun(lc.score); err != nil {
		lc.err = err
		lc.log.Error("could not record run", "error", err)
	}
	lc.log.Info("run over", "reason", reason, "score", lc.score)
}

// Phase returns the current phase.
func (lc *Lifecycle) Phase() core.Phase { return lc.phase }

// Score returns the accumulated score.
func (lc *Lifecycle) Score() int { return lc.score }

// Profile returns the profile the run is credited to.
func (lc *Lifecycle) Profile() Profile { return lc.profile }

// Reason returns why the run ended, or "" while it has not.
func (lc *Lifecycle) Reason() string { return lc.reason }

// Err returns the error from persisting the final score, if any.
func (lc *Lifecycle) Err() error { return lc.err }

// Over reports whether the run reached GameOver.
func (lc *Lifecycle) Over() bool { return lc.phase == core.PhaseGameOver }

// NopSink discards scores.
type NopSink struct{}

// AddScore implements ScoreSink.
func (NopSink) AddScore(int) {}

// EndRun implements ScoreSink.
func (NopSink) EndRun(int) error { return nil }

// Guest is an Identity that is always registered.
type Guest struct{ Name string }

// CurrentProfile implements Identity.
func (g Guest) CurrentProfile() (Profile, bool) {
	name := g.Name
	if name == "" {
		name = "guest"
	}
	return Profile{Name: name}, true
}
