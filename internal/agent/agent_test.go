package agent

import (
	"math"
	"testing"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/registry"
)

func TestAgentMove(t *testing.T) {
	a := New(config.DefaultRunnerConfig().Agent)

	a.Move(1, 0)
	if a.Position().Z != 15 {
		t.Errorf("Z = %f after 1s, expected 15", a.Position().Z)
	}

	tests := []struct {
		name   string
		intent float64
		secs   float64
		x      float64
	}{
		{"right clamps to limit", 1, 2, 4},
		{"left clamps to limit", -1, 2, -4},
		{"overdriven intent is clamped", -5, 0.1, -4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < int(tc.secs*60); i++ {
				a.Move(1.0/60, tc.intent)
			}
			if x := a.Position().X; math.Abs(x-tc.x) > 1e-9 {
				t.Errorf("X = %f, expected %f", x, tc.x)
			}
		})
	}

	if a.Lean() >= 0 {
		t.Errorf("Lean() = %f after steering left, expected negative", a.Lean())
	}

	a.SetSpeed(7.5)
	if a.Speed() != 7.5 || a.BaseSpeed() != 15 {
		t.Errorf("Speed() = %f, BaseSpeed() = %f", a.Speed(), a.BaseSpeed())
	}
}

func TestPilotsRegistered(t *testing.T) {
	for _, id := range []string{"idle", "greedy", "weaver"} {
		p, err := registry.Create(id)
		if err != nil {
			t.Fatalf("Create(%q) error = %v", id, err)
		}
		if p.ID() != id {
			t.Errorf("ID() = %q, expected %q", p.ID(), id)
		}
	}
}

func TestGreedySteersTowardCan(t *testing.T) {
	g := NewGreedy()
	obs := core.Observation{
		Agent:        core.V(0, Height, 100),
		LateralLimit: 4,
		Hazards: []core.HazardView{
			{Kind: core.KindPickup, Pos: core.V(3, Height, 130)},
			{Kind: core.KindPickup, Pos: core.V(-2, Height, 120)},
			{Kind: core.KindPickup, Pos: core.V(4, Height, 90)}, // behind
		},
	}
	if got := g.Steer(obs); got >= 0 {
		t.Errorf("Steer() = %f, expected left toward nearest can", got)
	}
}

func TestGreedyDodgesObstacle(t *testing.T) {
	g := NewGreedy()
	obs := core.Observation{
		Agent:        core.V(0, Height, 100),
		LateralLimit: 4,
		Hazards: []core.HazardView{
			{Kind: core.KindObstacle, Pos: core.V(0.2, Height, 110)},
		},
	}
	if got := g.Steer(obs); got == 0 {
		t.Error("Steer() = 0 with an obstacle dead ahead")
	}

	// Nothing ahead: hold course
	obs.Hazards = nil
	if got := g.Steer(obs); got != 0 {
		t.Errorf("Steer() = %f with a clear track, expected 0", got)
	}
}

func TestWeaverBounded(t *testing.T) {
	w := NewWeaver()
	w.Reset(90)
	for i := 0; i < 400; i++ {
		v := w.Steer(core.Observation{Time: float64(i) / 60})
		if v < -1 || v > 1 {
			t.Fatalf("Steer() = %f outside [-1, 1]", v)
		}
	}
}
