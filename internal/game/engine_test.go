package game

import (
	"errors"
	"strings"
	"testing"

	"github.com/vovakirdan/canrun/internal/agent"
	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/hazard"
	"github.com/vovakirdan/canrun/internal/run"
)

type recordingSink struct {
	added  int
	ends   []int
	failOn error
}

func (s *recordingSink) AddScore(delta int) { s.added += delta }

func (s *recordingSink) EndRun(final int) error {
	s.ends = append(s.ends, final)
	return s.failOn
}

// lateIdentity registers after a fixed number of polls.
type lateIdentity struct {
	polls, after int
}

func (l *lateIdentity) CurrentProfile() (run.Profile, bool) {
	l.polls++
	if l.polls <= l.after {
		return run.Profile{}, false
	}
	return run.Profile{ID: 7, Name: "ana"}, true
}

func testRuntime(seed int64) core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60, Seed: seed}
}

func stepN(e *Engine, n int) core.GameState {
	var st core.GameState
	for i := 0; i < n; i++ {
		st = e.Step(core.NewInputFrame()).State
	}
	return st
}

func TestNewEngineMissingIdentity(t *testing.T) {
	_, err := New(config.DefaultRunnerConfig(), testRuntime(1), Deps{})
	if !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
}

func TestNewEngineInvalidConfig(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	cfg.World.SegmentLength = 0
	_, err := New(cfg, testRuntime(1), Deps{Identity: run.Guest{}})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEngineDeterminism(t *testing.T) {
	newRun := func() *Engine {
		e, err := New(config.DefaultRunnerConfig(), testRuntime(12345), Deps{
			Identity: run.Guest{},
			Pilot:    agent.NewGreedy(),
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return e
	}

	g1, g2 := newRun(), newRun()
	st1, st2 := stepN(g1, 900), stepN(g2, 900)

	if st1 != st2 {
		t.Errorf("Determinism failed: states differ.\nRun1=%+v\nRun2=%+v", st1, st2)
	}
	if g1.Summary() != g2.Summary() {
		t.Errorf("Determinism failed: summaries differ.\nRun1=%+v\nRun2=%+v", g1.Summary(), g2.Summary())
	}
	if g1.Tick() != g2.Tick() {
		t.Errorf("Determinism failed: tick counts differ. Run1=%d, Run2=%d", g1.Tick(), g2.Tick())
	}
}

func TestEngineWaitsForRegistration(t *testing.T) {
	id := &lateIdentity{after: 30}
	e, err := New(config.DefaultRunnerConfig(), testRuntime(1), Deps{Identity: id})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	st := stepN(e, 30)
	if st.Phase != core.PhaseRegistering {
		t.Fatalf("expected Registering, got %v", st.Phase)
	}
	if st.Distance != 0 || st.Elapsed != 0 {
		t.Errorf("world should not move while registering, distance=%f elapsed=%f", st.Distance, st.Elapsed)
	}
	if st.Remaining != e.Config().Watchdog.MaxSilence {
		t.Errorf("remaining = %f, want full window", st.Remaining)
	}

	st = stepN(e, 1)
	if st.Phase != core.PhasePlaying {
		t.Fatalf("expected Playing after registration, got %v", st.Phase)
	}
	if e.Profile().Name != "ana" {
		t.Errorf("profile = %+v", e.Profile())
	}

	st = stepN(e, 60)
	if st.Distance <= 0 {
		t.Error("agent should move once playing")
	}
}

func TestEngineWatchdogEndsIdleRun(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	cfg.Hazards.MaxLivePickups = 0 // No cans ever appear
	sink := &recordingSink{}

	e, err := New(cfg, testRuntime(3), Deps{Identity: run.Guest{}, Sink: sink})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var st core.GameState
	for i := 0; i < 60*12 && !st.GameOver; i++ {
		st = e.Step(core.NewInputFrame()).State
	}

	if !st.GameOver {
		t.Fatal("run should end when no can is collected")
	}
	if st.EndReason != hazard.ReasonWatchdog {
		t.Errorf("end reason = %q", st.EndReason)
	}
	if st.Elapsed <= 8 || st.Elapsed > 8.1 {
		t.Errorf("run ended at %.3fs, want just after 8s", st.Elapsed)
	}

	// Further ticks change nothing and never re-report the score
	stepN(e, 120)
	if len(sink.ends) != 1 {
		t.Errorf("sink EndRun called %d times, want 1", len(sink.ends))
	}
	if st := e.State(); st.Obstacles != 0 || st.Pickups != 0 {
		t.Errorf("hazards should be cleared at game over, got %d obstacles %d pickups", st.Obstacles, st.Pickups)
	}
}

func TestEnginePause(t *testing.T) {
	e, err := New(config.DefaultRunnerConfig(), testRuntime(1), Deps{Identity: run.Guest{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stepN(e, 30)

	pause := core.NewInputFrame()
	pause.Set(core.ActionPause)
	st := e.Step(pause).State
	if !st.Paused {
		t.Fatal("engine should be paused")
	}

	before := e.State()
	tick := e.Tick()
	stepN(e, 600)
	after := e.State()

	if after.Distance != before.Distance || after.Elapsed != before.Elapsed {
		t.Errorf("world should freeze while paused: before=%+v after=%+v", before, after)
	}
	if e.Tick() != tick {
		t.Errorf("tick advanced while paused: %d -> %d", tick, e.Tick())
	}
	if after.GameOver {
		t.Error("watchdog must not fire while paused")
	}

	if st := e.Step(pause).State; st.Paused {
		t.Error("engine should be unpaused")
	}
}

func TestEngineEndAction(t *testing.T) {
	sink := &recordingSink{failOn: errors.New("disk full")}
	e, err := New(config.DefaultRunnerConfig(), testRuntime(9), Deps{Identity: run.Guest{}, Sink: sink})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stepN(e, 240)

	end := core.NewInputFrame()
	end.Set(core.ActionEnd)
	st := e.Step(end).State

	if !st.GameOver || st.EndReason != run.ReasonPlayerEnded {
		t.Fatalf("expected player-ended game over, got %+v", st)
	}
	if e.Err() == nil {
		t.Error("sink failure should be reported through Err")
	}
	if len(sink.ends) != 1 {
		t.Errorf("sink EndRun called %d times, want 1", len(sink.ends))
	}

	e.End("again")
	if e.State().EndReason != run.ReasonPlayerEnded {
		t.Error("second End should be ignored")
	}
}

func TestEngineGreedyCollects(t *testing.T) {
	sink := &recordingSink{}
	e, err := New(config.DefaultRunnerConfig(), testRuntime(42), Deps{
		Identity: run.Guest{},
		Sink:     sink,
		Pilot:    agent.NewGreedy(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stepN(e, 60*20)
	sum := e.Summary()

	if sum.Collected == 0 {
		t.Fatalf("greedy pilot collected nothing: %+v", sum)
	}
	if sum.Score != sum.Collected*e.Config().Collision.PickupScore {
		t.Errorf("score %d does not match %d cans", sum.Score, sum.Collected)
	}
	if sink.added != sum.Score {
		t.Errorf("sink saw %d, engine scored %d", sink.added, sum.Score)
	}
}

func TestEngineRender(t *testing.T) {
	e, err := New(config.DefaultRunnerConfig(), testRuntime(1), Deps{Identity: run.Guest{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stepN(e, 120)

	screen := core.NewScreen(80, 24)
	e.Render(screen)

	lines := strings.Split(screen.String(), "\n")
	if !strings.HasPrefix(lines[0], "score") {
		t.Errorf("HUD missing, first line %q", lines[0])
	}

	found := false
	for y := 1; y < 24 && !found; y++ {
		for x := 0; x < 80; x++ {
			if screen.GetCell(x, y).Rune == AgentChar {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("agent should be drawn")
	}
}
