package storage

import (
	"errors"

	"github.com/vovakirdan/canrun/internal/run"
)

// Identity resolves the current player from the profiles table.
// It reports nothing until a profile with its email exists, so a run
// stays in registration until then.
type Identity struct {
	store   *Store
	email   string
	profile run.Profile
	found   bool
	err     error
}

// Identity returns a run.Identity bound to email.
func (s *Store) Identity(email string) *Identity {
	return &Identity{store: s, email: email}
}

// CurrentProfile implements run.Identity.
func (id *Identity) CurrentProfile() (run.Profile, bool) {
	if id.found {
		return id.profile, true
	}
	p, err := id.store.ProfileByEmail(id.email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			id.err = err
		}
		return run.Profile{}, false
	}
	id.profile = run.Profile{ID: p.ID, Name: p.Name, Email: p.Email, BestScore: p.BestScore}
	id.found = true
	return id.profile, true
}

// Err returns the last lookup error other than ErrNotFound.
func (id *Identity) Err() error { return id.err }

// RunDetails describes a run beyond its score.
type RunDetails struct {
	Distance  float64
	Duration  float64
	EndReason string
}

// RunRecorder is a run.ScoreSink that saves the finished run.
type RunRecorder struct {
	store    *Store
	identity run.Identity
	pilot    string
	details  func() RunDetails

	score int
	runID string
}

// RecorderOption configures a RunRecorder.
type RecorderOption func(*RunRecorder)

// WithPilot tags recorded runs with the pilot that drove them.
func WithPilot(id string) RecorderOption {
	return func(r *RunRecorder) { r.pilot = id }
}

// WithDetails sets the source of distance, duration, and end reason.
// It is called once, when the run ends.
func WithDetails(fn func() RunDetails) RecorderOption {
	return func(r *RunRecorder) { r.details = fn }
}

// NewRunRecorder creates a sink that credits runs to identity's profile.
// A nil identity records anonymous runs.
func NewRunRecorder(store *Store, identity run.Identity, opts ...RecorderOption) *RunRecorder {
	r := &RunRecorder{store: store, identity: identity}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddScore implements run.ScoreSink.
func (r *RunRecorder) AddScore(delta int) { r.score += delta }

// EndRun implements run.ScoreSink.
func (r *RunRecorder) EndRun(finalScore int) error {
	rec := RunRecord{Score: finalScore, Pilot: r.pilot}
	if r.identity != nil {
		if p, ok := r.identity.CurrentProfile(); ok {
			rec.ProfileID = p.ID
		}
	}
	if r.details != nil {
		d := r.details()
		rec.Distance, rec.Duration, rec.EndReason = d.Distance, d.Duration, d.EndReason
	}

	id, err := r.store.SaveRun(rec)
	if err != nil {
		return err
	}
	r.runID = id
	return nil
}

// Score returns the running total seen through AddScore.
func (r *RunRecorder) Score() int { return r.score }

// RunID returns the ID of the saved run, or "" before EndRun.
func (r *RunRecorder) RunID() string { return r.runID }

var (
	_ run.Identity  = (*Identity)(nil)
	_ run.ScoreSink = (*RunRecorder)(nil)
)
