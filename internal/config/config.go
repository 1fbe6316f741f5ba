// Package config provides YAML-based runner configuration loading,
// validation, presets, and the difficulty ramp state.
package config

import (
	"errors"
	"fmt"
)

// RunnerConfig contains all configuration for a run.
type RunnerConfig struct {
	World      WorldConfig      `yaml:"world"`
	Agent      AgentConfig      `yaml:"agent"`
	Hazards    HazardConfig     `yaml:"hazards"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
	Watchdog   WatchdogConfig   `yaml:"watchdog"`
	Collision  CollisionConfig  `yaml:"collision"`
}

// Variant is one entry of a fixed prefab table.
type Variant struct {
	Name   string  `yaml:"name"`
	Radius float64 `yaml:"radius"`
}

// WorldConfig defines the streamed track and its scenery.
type WorldConfig struct {
	VisibleSegments   int       `yaml:"visible_segments"` // Window size W
	SegmentLength     float64   `yaml:"segment_length"`
	HalfWidth         float64   `yaml:"half_width"` // Drivable lateral half-width for spawns
	SpawnHeight       float64   `yaml:"spawn_height"`
	OccupancyRadius   float64   `yaml:"occupancy_radius"`
	LateralDistance   float64   `yaml:"lateral_distance"` // Decoration spread from center
	CenterClearance   float64   `yaml:"center_clearance"` // Decorations closer than this to center are skipped
	MinDecorations    int       `yaml:"min_decorations"`
	MaxDecorations    int       `yaml:"max_decorations"`
	BuildingSpacing   float64   `yaml:"building_spacing"`
	BuildingMinHeight float64   `yaml:"building_min_height"`
	BuildingMaxHeight float64   `yaml:"building_max_height"`
	Terrain           []Variant `yaml:"terrain"`
	Decorations       []Variant `yaml:"decorations"`
	Buildings         []Variant `yaml:"buildings"`
}

// AgentConfig defines the runner's kinematics.
type AgentConfig struct {
	ForwardSpeed float64 `yaml:"forward_speed"`
	LateralSpeed float64 `yaml:"lateral_speed"`
	LateralLimit float64 `yaml:"lateral_limit"`
	Radius       float64 `yaml:"radius"`
}

// HazardConfig defines obstacle and pickup population rules.
type HazardConfig struct {
	SpawnDistance      float64   `yaml:"spawn_distance"`
	MinDistance        float64   `yaml:"min_distance"`
	CleanupBehind      float64   `yaml:"cleanup_behind"`
	MaxNearbyObstacles int       `yaml:"max_nearby_obstacles"`
	MaxLivePickups     int       `yaml:"max_live_pickups"`
	PickupAttempts     int       `yaml:"pickup_attempts"`
	ConsecutiveMax     int       `yaml:"consecutive_max"`
	ConsecutivePenalty float64   `yaml:"consecutive_penalty"`
	PickupRadius       float64   `yaml:"pickup_radius"`
	CollectDuration    float64   `yaml:"collect_duration"`
	Obstacles          []Variant `yaml:"obstacles"`
}

// DifficultyConfig defines spawn intervals and the ramp that tightens them.
type DifficultyConfig struct {
	Enabled          bool    `yaml:"enabled"`
	ObstacleInterval float64 `yaml:"obstacle_interval"`
	PickupInterval   float64 `yaml:"pickup_interval"`
	ObstacleFloor    float64 `yaml:"obstacle_floor"`
	PickupFloor      float64 `yaml:"pickup_floor"`
	RampStep         float64 `yaml:"ramp_step"`
	RampPeriod       float64 `yaml:"ramp_period"`
}

// WatchdogConfig defines the mandatory-pickup countdown.
type WatchdogConfig struct {
	MaxSilence  float64 `yaml:"max_silence"`
	CheckPeriod float64 `yaml:"check_period"`
	WarnWithin  float64 `yaml:"warn_within"`
}

// CollisionConfig defines contact responses.
type CollisionConfig struct {
	SlowFactor   float64 `yaml:"slow_factor"`
	SlowDuration float64 `yaml:"slow_duration"`
	PickupScore  int     `yaml:"pickup_score"`
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks the configuration for values the engine cannot run with.
func (c RunnerConfig) Validate() error {
	w := c.World
	switch {
	case w.VisibleSegments < 1:
		return invalid("world.visible_segments", "must be at least 1")
	case w.SegmentLength <= 0:
		return invalid("world.segment_length", "must be positive")
	case w.HalfWidth <= 0:
		return invalid("world.half_width", "must be positive")
	case w.OccupancyRadius <= 0:
		return invalid("world.occupancy_radius", "must be positive")
	case w.MinDecorations < 0 || w.MaxDecorations < w.MinDecorations:
		return invalid("world.max_decorations", "must be >= min_decorations >= 0")
	case w.BuildingSpacing <= 0:
		return invalid("world.building_spacing", "must be positive")
	case len(w.Terrain) == 0:
		return invalid("world.terrain", "needs at least one variant")
	case len(w.Decorations) == 0:
		return invalid("world.decorations", "needs at least one variant")
	case len(w.Buildings) == 0:
		return invalid("world.buildings", "needs at least one variant")
	}

	a := c.Agent
	if a.ForwardSpeed <= 0 || a.LateralSpeed < 0 || a.LateralLimit <= 0 || a.Radius <= 0 {
		return invalid("agent", "speeds, lateral_limit and radius must be positive")
	}

	h := c.Hazards
	switch {
	case h.SpawnDistance <= 0:
		return invalid("hazards.spawn_distance", "must be positive")
	case h.MinDistance < 0 || h.MinDistance > h.SpawnDistance:
		return invalid("hazards.min_distance", "must be within [0, spawn_distance]")
	case h.CleanupBehind <= 0:
		return invalid("hazards.cleanup_behind", "must be positive")
	case h.PickupAttempts < 1:
		return invalid("hazards.pickup_attempts", "must be at least 1")
	case h.ConsecutiveMax < 1:
		return invalid("hazards.consecutive_max", "must be at least 1")
	case len(h.Obstacles) == 0:
		return invalid("hazards.obstacles", "needs at least one variant")
	}

	d := c.Difficulty
	switch {
	case d.ObstacleFloor <= 0 || d.PickupFloor <= 0:
		return invalid("difficulty", "floors must be positive")
	case d.ObstacleInterval < d.ObstacleFloor:
		return invalid("difficulty.obstacle_interval", "must be >= obstacle_floor")
	case d.PickupInterval < d.PickupFloor:
		return invalid("difficulty.pickup_interval", "must be >= pickup_floor")
	case d.RampStep < 0:
		return invalid("difficulty.ramp_step", "must not be negative")
	case d.RampPeriod <= 0:
		return invalid("difficulty.ramp_period", "must be positive")
	}

	if c.Watchdog.MaxSilence <= 0 || c.Watchdog.CheckPeriod <= 0 {
		return invalid("watchdog", "max_silence and check_period must be positive")
	}
	if c.Collision.SlowFactor <= 0 || c.Collision.SlowFactor > 1 {
		return invalid("collision.slow_factor", "must be within (0, 1]")
	}
	if c.Collision.SlowDuration < 0 {
		return invalid("collision.slow_duration", "must not be negative")
	}
	return nil
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, field, reason)
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// ParsePreset maps a CLI string to a preset. Unknown strings return "".
func ParsePreset(s string) DifficultyPreset {
	switch DifficultyPreset(s) {
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyFixed:
		return DifficultyPreset(s)
	default:
		return ""
	}
}
