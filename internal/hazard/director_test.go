package hazard

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/world"
)

// openPlacer proposes points straight ahead of a fixed origin. free controls occupancy.
type openPlacer struct {
	origin r3.Vec
	free   bool
	checks int
	lane   float64
}

func (p *openPlacer) ObtainSpawnPosition(ahead float64) r3.Vec {
	// Step laterally so successive spawns never coincide
	p.lane += 0.01
	return core.V(p.lane, 0.5, p.origin.Z+ahead)
}

func (p *openPlacer) IsPositionFree(r3.Vec, float64) bool {
	p.checks++
	return p.free
}

type countingEnder struct {
	calls  int
	reason string
}

func (e *countingEnder) EndRun(reason string) {
	e.calls++
	e.reason = reason
}

type recordingAdvisor struct{ remaining []float64 }

func (a *recordingAdvisor) Advise(r float64) { a.remaining = append(a.remaining, r) }

func newTestDirector(t *testing.T, cfg config.RunnerConfig, placer Placer, opts ...Option) (*Director, *world.Arena, *countingEnder) {
	t.Helper()
	arena := world.NewArena()
	ender := &countingEnder{}
	d, err := NewDirector(cfg, placer, arena, ender, rand.New(rand.NewSource(1)), opts...)
	if err != nil {
		t.Fatalf("NewDirector() error = %v", err)
	}
	d.Start(0)
	return d, arena, ender
}

func TestNewDirectorMissingCollaborators(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	arena := world.NewArena()
	placer := &openPlacer{free: true}
	ender := &countingEnder{}

	tests := []struct {
		name     string
		placer   Placer
		arena    *world.Arena
		ender    RunEnder
		expected error
	}{
		{"no placer", nil, arena, ender, ErrMissingPlacer},
		{"no arena", placer, nil, ender, world.ErrMissingArena},
		{"no ender", placer, arena, nil, ErrMissingEnder},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDirector(cfg, tc.placer, tc.arena, tc.ender, nil)
			if !errors.Is(err, tc.expected) {
				t.Errorf("NewDirector() error = %v, expected %v", err, tc.expected)
			}
		})
	}
}

func TestWatchdogExpiresExactlyOnce(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	d, _, ender := newTestDirector(t, cfg, &openPlacer{free: true})

	origin := core.V(0, 0.5, 0)
	d.Update(8.0, origin)
	if d.Terminal() {
		t.Fatal("watchdog fired at exactly maxSilence")
	}

	d.Update(8.01, origin)
	if !d.Terminal() {
		t.Fatal("watchdog should fire at t=8.01")
	}
	if ender.calls != 1 || ender.reason != ReasonWatchdog {
		t.Fatalf("EndRun called %d times with %q", ender.calls, ender.reason)
	}

	for now := 8.02; now <= 9.0; now += 0.1 {
		d.Update(now, origin)
	}
	d.Update(9, origin)
	if ender.calls != 1 {
		t.Errorf("EndRun called %d times by t=9, expected exactly 1", ender.calls)
	}
	if d.TimeRemainingBeforeGameOver(9) != 0 {
		t.Errorf("TimeRemainingBeforeGameOver() = %f after expiry", d.TimeRemainingBeforeGameOver(9))
	}
}

func TestNoGenerationAfterTerminal(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	placer := &openPlacer{free: true}
	d, arena, _ := newTestDirector(t, cfg, placer)

	origin := core.V(0, 0.5, 0)
	for i := 1; i <= 60*9; i++ {
		d.Update(float64(i)/60, origin)
	}
	if !d.Terminal() {
		t.Fatal("expected terminal after 9 silent seconds")
	}

	stats, diff, live := d.Stats(), d.Difficulty(), len(arena.Live(core.KindNone))
	for i := 60 * 9; i <= 60*60; i++ {
		d.Update(float64(i)/60, origin)
	}
	if got := d.Stats(); got.ObstaclesSpawned != stats.ObstaclesSpawned || got.PickupsSpawned != stats.PickupsSpawned {
		t.Errorf("hazards created after terminal: %+v -> %+v", stats, got)
	}
	if got := d.Difficulty(); got != diff {
		t.Errorf("difficulty mutated after terminal: %+v -> %+v", diff, got)
	}
	if got := len(arena.Live(core.KindNone)); got != live {
		t.Errorf("live hazards changed after terminal: %d -> %d", live, got)
	}

	// Collection signals are ignored once terminal
	d.NotifyPickupCollected(60)
	if !d.Terminal() {
		t.Error("terminal flag must never clear")
	}
}

func TestNotifyPickupCollectedResetsWatchdog(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	d, _, ender := newTestDirector(t, cfg, &openPlacer{free: true})
	origin := core.V(0, 0.5, 0)

	d.Update(7, origin)
	d.NotifyPickupCollected(7)
	if d.Consecutive() != 0 {
		t.Errorf("Consecutive() = %d after collection, expected 0", d.Consecutive())
	}
	d.Update(14, origin)

	if d.Terminal() || ender.calls != 0 {
		t.Fatal("watchdog fired despite collection at t=7")
	}
	if got := d.TimeRemainingBeforeGameOver(14); got != 1 {
		t.Errorf("TimeRemainingBeforeGameOver() = %f, expected 1", got)
	}
}

func TestWatchdogAdvisory(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	adv := &recordingAdvisor{}
	d, _, _ := newTestDirector(t, cfg, &openPlacer{free: true}, WithAdvisor(adv))
	origin := core.V(0, 0.5, 0)

	for s := 1; s <= 8; s++ {
		d.Update(float64(s), origin)
		if s == 6 && !d.Warning() {
			t.Error("Warning() should be set with 2s remaining")
		}
	}

	expected := []float64{3, 2, 1}
	if len(adv.remaining) != len(expected) {
		t.Fatalf("advisories = %v, expected %v", adv.remaining, expected)
	}
	for i, r := range expected {
		if adv.remaining[i] != r {
			t.Errorf("advisory %d = %f, expected %f", i, adv.remaining[i], r)
		}
	}
}

func TestPickupAttemptsExhausted(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	cfg.Watchdog.MaxSilence = 100
	cfg.Hazards.MaxNearbyObstacles = 0 // obstacles never reach the placer
	placer := &openPlacer{free: false}
	d, _, _ := newTestDirector(t, cfg, placer)
	origin := core.V(0, 0.5, 0)

	d.Update(2, origin)
	if placer.checks != 10 {
		t.Errorf("occupancy checked %d times, expected 10", placer.checks)
	}
	if d.ActivePickupCount() != 0 {
		t.Errorf("ActivePickupCount() = %d, expected 0", d.ActivePickupCount())
	}
	if d.Stats().PickupSkips != 1 {
		t.Errorf("PickupSkips = %d, expected 1", d.Stats().PickupSkips)
	}

	// The process keeps its schedule
	d.Update(4, origin)
	if placer.checks != 20 {
		t.Errorf("occupancy checked %d times after next interval, expected 20", placer.checks)
	}
}

func TestConsecutivePickupPenalty(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	cfg.Watchdog.MaxSilence = 100
	d, _, _ := newTestDirector(t, cfg, &openPlacer{free: true})
	origin := core.V(0, 0.5, 0)

	d.Update(2, origin)
	d.Update(4, origin)
	if d.Consecutive() != 2 {
		t.Fatalf("Consecutive() = %d, expected 2", d.Consecutive())
	}
	d.Update(6, origin)

	if d.Consecutive() != 0 {
		t.Errorf("Consecutive() = %d after third spawn, expected 0", d.Consecutive())
	}
	if got := d.Difficulty().PickupInterval; got != 3.0 {
		t.Errorf("PickupInterval = %f, expected 3.0", got)
	}
	if d.Stats().Penalties != 1 {
		t.Errorf("Penalties = %d, expected 1", d.Stats().Penalties)
	}

	// The eased interval applies to the next wait
	d.Update(8, origin)
	if d.Stats().PickupsSpawned != 3 {
		t.Errorf("PickupsSpawned = %d at t=8, expected 3", d.Stats().PickupsSpawned)
	}
	d.Update(9, origin)
	if d.Stats().PickupsSpawned != 4 {
		t.Errorf("PickupsSpawned = %d at t=9, expected 4", d.Stats().PickupsSpawned)
	}
}

func TestCollectionBreaksConsecutiveRun(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	d, _, _ := newTestDirector(t, cfg, &openPlacer{free: true})
	origin := core.V(0, 0.5, 0)

	d.Update(2, origin)
	d.Update(4, origin)
	d.NotifyPickupCollected(4)
	d.Update(6, origin)

	if d.Stats().Penalties != 0 {
		t.Errorf("Penalties = %d, expected 0", d.Stats().Penalties)
	}
	if got := d.Difficulty().PickupInterval; got != 2.0 {
		t.Errorf("PickupInterval = %f, expected 2.0", got)
	}
}

func TestRampMonotoneAndFloored(t *testing.T) {
	steps := []float64{0.1, 0.25, 0.7, 3}
	for _, step := range steps {
		cfg := config.DefaultRunnerConfig()
		cfg.Difficulty.RampStep = step
		cfg.Hazards.MaxLivePickups = 0 // no penalty
		cfg.Hazards.MaxNearbyObstacles = 0
		cfg.Watchdog.MaxSilence = 1e9
		d, _, _ := newTestDirector(t, cfg, &openPlacer{free: true})
		origin := core.V(0, 0.5, 0)

		prev := d.Difficulty()
		for i := 1; i <= 60*600; i++ {
			d.Update(float64(i)/60, origin)
			cur := d.Difficulty()
			if cur.Steps == prev.Steps {
				continue
			}
			if cur.ObstacleInterval > prev.ObstacleInterval || cur.PickupInterval > prev.PickupInterval {
				t.Fatalf("step %f: intervals grew %+v -> %+v", step, prev, cur)
			}
			if cur.ObstacleInterval < cfg.Difficulty.ObstacleFloor || cur.PickupInterval < cfg.Difficulty.PickupFloor {
				t.Fatalf("step %f: intervals below floor %+v", step, cur)
			}
			prev = cur
		}
		if prev.Steps < 39 {
			t.Errorf("step %f: only %d ramp steps in 600s", step, prev.Steps)
		}
	}
}

func TestFirstRampAtPeriod(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	cfg.Watchdog.MaxSilence = 100
	d, _, _ := newTestDirector(t, cfg, &openPlacer{free: true})
	origin := core.V(0, 0.5, 0)

	d.Update(14.9, origin)
	if d.Difficulty().Steps != 0 {
		t.Fatal("ramp fired before its period")
	}
	d.Update(15, origin)
	if d.Difficulty().Steps != 1 {
		t.Fatal("ramp should fire at 15s")
	}
	if got := d.Difficulty().ObstacleInterval; got < 2.89 || got > 2.91 {
		t.Errorf("ObstacleInterval = %f, expected 2.9", got)
	}
}

func TestObstacleNearbyCap(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	cfg.Watchdog.MaxSilence = 100
	placer := &openPlacer{free: true}
	d, arena, _ := newTestDirector(t, cfg, placer)
	origin := core.V(0, 0.5, 0)

	first := arena.SpawnHazard(core.V(0, 0.5, 10), world.Hazard{Kind: core.KindObstacle, Radius: 1})
	arena.SpawnHazard(core.V(0, 0.5, 20), world.Hazard{Kind: core.KindObstacle, Radius: 1})
	arena.SpawnHazard(core.V(0, 0.5, 30), world.Hazard{Kind: core.KindObstacle, Radius: 1})

	d.Update(3, origin)
	if d.Stats().ObstaclesSpawned != 0 || d.Stats().ObstacleSkips != 1 {
		t.Errorf("expected skip with 3 nearby obstacles, got %+v", d.Stats())
	}

	arena.Destroy(first)
	d.Update(6, origin)
	if d.Stats().ObstaclesSpawned != 1 {
		t.Errorf("ObstaclesSpawned = %d, expected 1", d.Stats().ObstaclesSpawned)
	}
	if d.ActiveObstacleCount() != 3 {
		t.Errorf("ActiveObstacleCount() = %d, expected 3", d.ActiveObstacleCount())
	}
}

func TestObstacleOccupiedSkipsWithoutRetry(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	cfg.Watchdog.MaxSilence = 100
	cfg.Hazards.MaxLivePickups = 0
	placer := &openPlacer{free: false}
	d, _, _ := newTestDirector(t, cfg, placer)

	d.Update(3, core.V(0, 0.5, 0))
	if placer.checks != 1 {
		t.Errorf("occupancy checked %d times, expected a single check", placer.checks)
	}
	if d.ActiveObstacleCount() != 0 {
		t.Error("obstacle spawned on an occupied position")
	}
}

func TestCleanupBehindAgent(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	d, arena, _ := newTestDirector(t, cfg, &openPlacer{free: true})

	arena.SpawnHazard(core.V(0, 0.5, 50), world.Hazard{Kind: core.KindObstacle})
	arena.SpawnHazard(core.V(0, 0.5, 79), world.Hazard{Kind: core.KindPickup})
	arena.SpawnHazard(core.V(0, 0.5, 90), world.Hazard{Kind: core.KindPickup})

	d.Update(0.5, core.V(0, 0.5, 100))
	if d.ActiveObstacleCount() != 0 || d.ActivePickupCount() != 1 {
		t.Errorf("counts after cleanup = (%d, %d), expected (0, 1)", d.ActiveObstacleCount(), d.ActivePickupCount())
	}
	if d.Stats().Cleaned != 2 {
		t.Errorf("Cleaned = %d, expected 2", d.Stats().Cleaned)
	}
}

func TestStopGeneration(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	d, _, ender := newTestDirector(t, cfg, &openPlacer{free: true})
	origin := core.V(0, 0.5, 0)

	d.StopGeneration()
	for i := 1; i <= 60*20; i++ {
		d.Update(float64(i)/60, origin)
	}
	if got := d.Stats(); got.ObstaclesSpawned+got.PickupsSpawned+got.Ramps != 0 {
		t.Errorf("processes ran after StopGeneration: %+v", got)
	}
	if ender.calls != 0 {
		t.Error("stopped director should not end the run")
	}
}

func TestNoOverlappingSpawnsWithStreamer(t *testing.T) {
	cfg := config.DefaultRunnerConfig()
	cfg.Watchdog.MaxSilence = 1e9
	cfg.Hazards.MaxLivePickups = 50
	cfg.Hazards.MaxNearbyObstacles = 50
	cfg.Difficulty.ObstacleInterval = 1
	cfg.Difficulty.PickupInterval = 0.5

	agent := &movingAgent{}
	arena := world.NewArena()
	streamer, err := world.NewStreamer(cfg.World, agent, arena, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	d, err := NewDirector(cfg, streamer, arena, &countingEnder{}, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatal(err)
	}
	d.Start(0)

	for i := 1; i <= 60*120; i++ {
		// Slow agent keeps many hazards alive at once
		agent.pos.Z += 2.0 / 60
		streamer.Advance(agent.pos)
		d.Update(float64(i)/60, agent.pos)

		live := arena.Live(core.KindNone)
		for a := 0; a < len(live); a++ {
			for b := a + 1; b < len(live); b++ {
				if dist := core.Distance(live[a].Pos, live[b].Pos); dist < cfg.World.OccupancyRadius {
					t.Fatalf("tick %d: hazards %d and %d only %f apart", i, a, b, dist)
				}
			}
		}
	}
	if d.Stats().ObstaclesSpawned == 0 || d.Stats().PickupsSpawned == 0 {
		t.Errorf("expected both kinds to spawn: %+v", d.Stats())
	}
}

type movingAgent struct{ pos r3.Vec }

func (a *movingAgent) Position() r3.Vec { return a.pos }
