package world

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
)

type fixedAgent struct{ pos r3.Vec }

func (a *fixedAgent) Position() r3.Vec { return a.pos }

func newTestStreamer(t *testing.T, seed int64) (*Streamer, *fixedAgent, *Arena) {
	t.Helper()
	agent := &fixedAgent{}
	arena := NewArena()
	s, err := NewStreamer(config.DefaultRunnerConfig().World, agent, arena, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewStreamer() error = %v", err)
	}
	return s, agent, arena
}

func TestNewStreamerMissingCollaborators(t *testing.T) {
	cfg := config.DefaultRunnerConfig().World

	if _, err := NewStreamer(cfg, nil, NewArena(), nil); !errors.Is(err, ErrMissingAgent) {
		t.Errorf("expected ErrMissingAgent, got %v", err)
	}
	if _, err := NewStreamer(cfg, &fixedAgent{}, nil, nil); !errors.Is(err, ErrMissingArena) {
		t.Errorf("expected ErrMissingArena, got %v", err)
	}
}

func TestResidentSegmentsBounded(t *testing.T) {
	s, agent, _ := newTestStreamer(t, 42)
	w := config.DefaultRunnerConfig().World.VisibleSegments

	if s.ResidentSegments() != w {
		t.Fatalf("initial ResidentSegments() = %d, expected %d", s.ResidentSegments(), w)
	}

	// 60 ticks per second at 15 units per second for 60 seconds
	for i := 0; i < 3600; i++ {
		agent.pos.Z += 15.0 / 60.0
		s.Advance(agent.pos)
		n := s.ResidentSegments()
		if n != w && n != w+1 {
			t.Fatalf("tick %d: ResidentSegments() = %d, expected %d or %d", i, n, w, w+1)
		}
	}
	if s.MaxResident() > w+1 {
		t.Errorf("MaxResident() = %d, exceeds %d", s.MaxResident(), w+1)
	}

	// Window stays contiguous and ahead of the agent
	segs := s.Segments()
	for i := 1; i < len(segs); i++ {
		if segs[i].Start != segs[i-1].End() {
			t.Errorf("segment %d starts at %f, expected %f", i, segs[i].Start, segs[i-1].End())
		}
	}
	if s.LeadingEdge() < agent.pos.Z {
		t.Errorf("LeadingEdge() = %f behind agent at %f", s.LeadingEdge(), agent.pos.Z)
	}
}

func TestAdvanceCreatesOneSegmentPerCall(t *testing.T) {
	s, _, _ := newTestStreamer(t, 1)
	edge := s.LeadingEdge()

	// Agent teleports far ahead; only one segment per call
	s.Advance(core.V(0, 0, 10000))
	if got := s.LeadingEdge() - edge; got != 50 {
		t.Errorf("leading edge moved %f, expected one segment (50)", got)
	}
}

func TestRetiredSegmentDestroysDecorations(t *testing.T) {
	s, agent, arena := newTestStreamer(t, 7)
	first := s.Segments()[0]

	for s.Segments()[0].ID == first.ID {
		agent.pos.Z += 1
		s.Advance(agent.pos)
	}

	for _, e := range first.Decorations {
		if arena.Alive(e) {
			t.Errorf("decoration %v of retired segment %d still alive", e, first.ID)
		}
	}
	for _, d := range arena.Scenery(SceneryDecoration) {
		if d.Scenery.Owner == first.ID {
			t.Errorf("decoration owned by retired segment %d remains", first.ID)
		}
	}

	// Every live decoration belongs to a resident segment
	resident := map[int]bool{}
	for _, seg := range s.Segments() {
		resident[seg.ID] = true
	}
	for _, d := range arena.Scenery(SceneryDecoration) {
		if !resident[d.Scenery.Owner] {
			t.Errorf("decoration owned by non-resident segment %d", d.Scenery.Owner)
		}
	}
}

func TestDecorationsAvoidCenterLane(t *testing.T) {
	_, _, arena := newTestStreamer(t, 3)
	cfg := config.DefaultRunnerConfig().World

	decos := arena.Scenery(SceneryDecoration)
	if len(decos) == 0 {
		t.Fatal("expected decorations on the initial window")
	}
	for _, d := range decos {
		x := d.Pos.X
		if x > -cfg.CenterClearance && x < cfg.CenterClearance {
			t.Errorf("decoration at x=%f inside center clearance", x)
		}
		if x < -cfg.LateralDistance || x > cfg.LateralDistance {
			t.Errorf("decoration at x=%f outside lateral distance", x)
		}
	}
}

func TestBuildingsBounded(t *testing.T) {
	s, agent, arena := newTestStreamer(t, 9)
	w := config.DefaultRunnerConfig().World.VisibleSegments

	if s.Buildings() < 2*w {
		t.Fatalf("initial Buildings() = %d, expected at least %d", s.Buildings(), 2*w)
	}
	for i := 0; i < 2000; i++ {
		agent.pos.Z += 0.5
		s.Advance(agent.pos)
		if s.Buildings() > 4*w {
			t.Fatalf("Buildings() = %d exceeds %d", s.Buildings(), 4*w)
		}
	}
	if got := len(arena.Scenery(SceneryBuilding)); got != s.Buildings() {
		t.Errorf("arena holds %d buildings, streamer tracks %d", got, s.Buildings())
	}
	for _, b := range arena.Scenery(SceneryBuilding) {
		if b.Scenery.Height < 6 || b.Scenery.Height > 24 {
			t.Errorf("building height %f outside configured range", b.Scenery.Height)
		}
	}
}

func TestObtainSpawnPosition(t *testing.T) {
	s, agent, _ := newTestStreamer(t, 11)
	agent.pos = core.V(1.5, 0, 120)

	for i := 0; i < 200; i++ {
		p := s.ObtainSpawnPosition(50)
		if p.Z != 170 {
			t.Fatalf("Z = %f, expected 170", p.Z)
		}
		if p.X < -3 || p.X >= 3 {
			t.Fatalf("X = %f outside drivable width", p.X)
		}
		if p.Y != 0.5 {
			t.Fatalf("Y = %f, expected spawn height 0.5", p.Y)
		}
	}
}

func TestIsPositionFree(t *testing.T) {
	s, _, arena := newTestStreamer(t, 5)

	// Scenery never blocks
	for _, d := range arena.Scenery(SceneryDecoration) {
		if !s.IsPositionFree(d.Pos, 2) {
			t.Fatalf("decoration at %v blocks placement", d.Pos)
		}
	}

	arena.SpawnHazard(core.V(0, 0.5, 100), Hazard{Kind: core.KindObstacle, Radius: 0.8})

	tests := []struct {
		name     string
		pos      r3.Vec
		radius   float64
		expected bool
	}{
		{"on top", core.V(0, 0.5, 100), 2, false},
		{"at boundary", core.V(0, 0.5, 102), 2, false},
		{"just outside", core.V(0, 0.5, 102.01), 2, true},
		{"default radius", core.V(1.9, 0.5, 100), 0, false},
		{"far away", core.V(0, 0.5, 200), 2, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.IsPositionFree(tc.pos, tc.radius); got != tc.expected {
				t.Errorf("IsPositionFree() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

type occupiedEverywhere struct{ calls int }

func (o *occupiedEverywhere) QueryOccupants(pos r3.Vec, _ float64) []Occupant {
	o.calls++
	return []Occupant{{Kind: core.KindPickup, Pos: pos}}
}

func TestWithOccupancyOverride(t *testing.T) {
	q := &occupiedEverywhere{}
	s, err := NewStreamer(config.DefaultRunnerConfig().World, &fixedAgent{}, NewArena(), nil, WithOccupancy(q))
	if err != nil {
		t.Fatal(err)
	}
	if s.IsPositionFree(core.V(0, 0, 0), 2) {
		t.Error("expected override to report occupied")
	}
	if q.calls != 1 {
		t.Errorf("override called %d times, expected 1", q.calls)
	}
}
