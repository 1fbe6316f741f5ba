package world

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
)

var (
	// ErrMissingAgent is returned when no agent position source is supplied.
	ErrMissingAgent = errors.New("world: missing agent")
	// ErrMissingArena is returned when no entity arena is supplied.
	ErrMissingArena = errors.New("world: missing arena")
)

// AgentSource exposes the agent transform. Z is the track axis, X is lateral.
type AgentSource interface {
	Position() r3.Vec
}

// Segment is one fixed-length unit of streamed track.
type Segment struct {
	ID          int
	Start       float64
	Length      float64
	Terrain     int          // Index into the terrain table
	Decorations []ecs.Entity // Owned; destroyed with the segment
}

// End returns the Z coordinate of the segment's far edge.
func (s Segment) End() float64 { return s.Start + s.Length }

// Streamer owns the segment window and lateral scenery. It extends the
// track ahead of the agent and retires it behind.
type Streamer struct {
	cfg       config.WorldConfig
	agent     AgentSource
	arena     *Arena
	occupancy OccupancyQuery
	rng       *rand.Rand
	noise     opensimplex.Noise
	log       *log.Logger

	segments    []Segment // FIFO, oldest first
	nextID      int
	leadingEdge float64
	maxResident int

	buildings     []ecs.Entity // FIFO, oldest first
	nextBuildingZ float64
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithOccupancy replaces the arena as the occupancy source.
func WithOccupancy(q OccupancyQuery) Option {
	return func(s *Streamer) {
		if q != nil {
			s.occupancy = q
		}
	}
}

// WithLogger sets the streamer's logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Streamer) { s.log = core.LoggerOrDiscard(l) }
}

// NewStreamer creates a streamer and lays down the initial window:
// W segments from Z=0 and 2W building rows.
func NewStreamer(cfg config.WorldConfig, agent AgentSource, arena *Arena, rng *rand.Rand, opts ...Option) (*Streamer, error) {
	if agent == nil {
		return nil, ErrMissingAgent
	}
	if arena == nil {
		return nil, ErrMissingArena
	}
	if cfg.VisibleSegments < 1 || cfg.SegmentLength <= 0 {
		return nil, fmt.Errorf("world: window of %d segments of length %.1f", cfg.VisibleSegments, cfg.SegmentLength)
	}
	if cfg.BuildingSpacing <= 0 {
		cfg.BuildingSpacing = cfg.SegmentLength
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	s := &Streamer{
		cfg:       cfg,
		agent:     agent,
		arena:     arena,
		occupancy: arena,
		rng:       rng,
		noise:     opensimplex.New(rng.Int63()),
		log:       core.LoggerOrDiscard(nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i := 0; i < cfg.VisibleSegments; i++ {
		s.createSegment()
	}
	s.maxResident = len(s.segments)

	// Initial rows are denser than the streamed ones
	rows := cfg.VisibleSegments * 2
	for i := 0; i < rows; i++ {
		s.createBuildingRow(float64(i) * cfg.SegmentLength * 0.5)
	}
	s.nextBuildingZ = float64(rows) * cfg.SegmentLength * 0.5

	s.log.Debug("world initialized",
		"segments", len(s.segments),
		"buildings", len(s.buildings),
		"leading_edge", s.leadingEdge)
	return s, nil
}

// Advance extends the window if the agent has closed on the leading edge.
// At most one segment is created per call.
func (s *Streamer) Advance(agentPos r3.Vec) {
	w := float64(s.cfg.VisibleSegments)
	if agentPos.Z > s.leadingEdge-w*s.cfg.SegmentLength {
		s.createSegment()
		if n := len(s.segments); n > s.maxResident {
			s.maxResident = n
		}
		s.retireOldest()
	}
	s.advanceBuildings(agentPos)
}

func (s *Streamer) createSegment() {
	seg := Segment{
		ID:      s.nextID,
		Start:   s.leadingEdge,
		Length:  s.cfg.SegmentLength,
		Terrain: s.rng.Intn(len(s.cfg.Terrain)),
	}
	s.nextID++
	s.leadingEdge += s.cfg.SegmentLength
	seg.Decorations = s.decorate(seg)
	s.segments = append(s.segments, seg)
}

// decorate scatters decorations over the segment, skipping the center lane.
func (s *Streamer) decorate(seg Segment) []ecs.Entity {
	n := core.IntBetween(s.rng, s.cfg.MinDecorations, s.cfg.MaxDecorations)
	var owned []ecs.Entity
	for i := 0; i < n; i++ {
		z := core.Uniform(s.rng, seg.Start, seg.End())
		x := core.Uniform(s.rng, -s.cfg.LateralDistance, s.cfg.LateralDistance)
		if x < s.cfg.CenterClearance && x > -s.cfg.CenterClearance {
			continue
		}
		e := s.arena.SpawnScenery(core.V(x, 0, z), Scenery{
			Kind:    SceneryDecoration,
			Owner:   seg.ID,
			Slot:    sideOf(x),
			Variant: s.rng.Intn(len(s.cfg.Decorations)),
		})
		owned = append(owned, e)
	}
	return owned
}

func (s *Streamer) retireOldest() {
	if len(s.segments) <= s.cfg.VisibleSegments {
		return
	}
	old := s.segments[0]
	s.segments = s.segments[1:]
	for _, e := range old.Decorations {
		s.arena.Destroy(e)
	}
	s.log.Debug("segment retired", "id", old.ID, "start", old.Start, "decorations", len(old.Decorations))
}

func (s *Streamer) advanceBuildings(agentPos r3.Vec) {
	lead := float64(s.cfg.VisibleSegments) * s.cfg.SegmentLength * 1.5
	for agentPos.Z > s.nextBuildingZ-lead {
		s.createBuildingRow(s.nextBuildingZ)
		s.nextBuildingZ += s.cfg.BuildingSpacing

		if len(s.buildings) > s.cfg.VisibleSegments*4 {
			s.arena.Destroy(s.buildings[0])
			s.arena.Destroy(s.buildings[1])
			s.buildings = s.buildings[2:]
		}
	}
}

func (s *Streamer) createBuildingRow(z float64) {
	x := s.cfg.LateralDistance * 1.5
	for _, side := range []Side{SideLeft, SideRight} {
		e := s.arena.SpawnScenery(core.V(float64(side)*x, 0, z), Scenery{
			Kind:    SceneryBuilding,
			Owner:   NoOwner,
			Slot:    side,
			Variant: s.rng.Intn(len(s.cfg.Buildings)),
			Height:  s.buildingHeight(z, side),
		})
		s.buildings = append(s.buildings, e)
	}
}

// buildingHeight samples smooth noise along the track so neighbours look related.
func (s *Streamer) buildingHeight(z float64, side Side) float64 {
	n := (s.noise.Eval2(z*0.02, float64(side)*10) + 1) / 2
	return s.cfg.BuildingMinHeight + n*(s.cfg.BuildingMaxHeight-s.cfg.BuildingMinHeight)
}

// ObtainSpawnPosition returns a point distanceAhead of the agent at a
// random lateral offset within the drivable width. Occupancy is not checked.
func (s *Streamer) ObtainSpawnPosition(distanceAhead float64) r3.Vec {
	p := s.agent.Position()
	x := core.Uniform(s.rng, -s.cfg.HalfWidth, s.cfg.HalfWidth)
	return core.V(x, s.cfg.SpawnHeight, p.Z+distanceAhead)
}

// IsPositionFree reports whether no live hazard lies within radius of pos.
// A non-positive radius uses the configured occupancy radius.
func (s *Streamer) IsPositionFree(pos r3.Vec, radius float64) bool {
	if radius <= 0 {
		radius = s.cfg.OccupancyRadius
	}
	return IsFree(s.occupancy, pos, radius)
}

// ResidentSegments returns the number of segments in the window.
func (s *Streamer) ResidentSegments() int { return len(s.segments) }

// MaxResident returns the highest resident count observed, including the
// transient W+1 state inside Advance.
func (s *Streamer) MaxResident() int { return s.maxResident }

// Segments returns a copy of the window, oldest first.
func (s *Streamer) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Buildings returns the number of standalone buildings.
func (s *Streamer) Buildings() int { return len(s.buildings) }

// LeadingEdge returns the Z where the next segment will start.
func (s *Streamer) LeadingEdge() float64 { return s.leadingEdge }

// Arena returns the arena the streamer places scenery into.
func (s *Streamer) Arena() *Arena { return s.arena }

func sideOf(x float64) Side {
	switch {
	case x < 0:
		return SideLeft
	case x > 0:
		return SideRight
	default:
		return SideNone
	}
}
