package config

import (
	_ "embed"
)

//go:embed defaults/runner.yaml
var defaultRunnerYAML []byte

// DefaultRunnerConfig returns the default runner configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		World: WorldConfig{
			VisibleSegments:   5,
			SegmentLength:     50,
			HalfWidth:         3,
			SpawnHeight:       0.5,
			OccupancyRadius:   2,
			LateralDistance:   8,
			CenterClearance:   2,
			MinDecorations:    3,
			MaxDecorations:    7,
			BuildingSpacing:   50,
			BuildingMinHeight: 6,
			BuildingMaxHeight: 24,
			Terrain: []Variant{
				{Name: "straight"},
				{Name: "crosswalk"},
				{Name: "bridge"},
			},
			Decorations: []Variant{
				{Name: "tree", Radius: 0.8},
				{Name: "lamp", Radius: 0.3},
				{Name: "bench", Radius: 0.6},
				{Name: "hydrant", Radius: 0.3},
			},
			Buildings: []Variant{
				{Name: "house", Radius: 4},
				{Name: "shop", Radius: 4},
				{Name: "tower", Radius: 5},
			},
		},
		Agent: AgentConfig{
			ForwardSpeed: 15,
			LateralSpeed: 10,
			LateralLimit: 4,
			Radius:       0.5,
		},
		Hazards: HazardConfig{
			SpawnDistance:      50,
			MinDistance:        30,
			CleanupBehind:      20,
			MaxNearbyObstacles: 3,
			MaxLivePickups:     5,
			PickupAttempts:     10,
			ConsecutiveMax:     3,
			ConsecutivePenalty: 1,
			PickupRadius:       0.5,
			CollectDuration:    0.5,
			Obstacles: []Variant{
				{Name: "cone", Radius: 0.6},
				{Name: "barrel", Radius: 0.8},
				{Name: "crate", Radius: 1.0},
			},
		},
		Difficulty: DifficultyConfig{
			Enabled:          true,
			ObstacleInterval: 3,
			PickupInterval:   2,
			ObstacleFloor:    1,
			PickupFloor:      0.5,
			RampStep:         0.1,
			RampPeriod:       15,
		},
		Watchdog: WatchdogConfig{
			MaxSilence:  8,
			CheckPeriod: 1,
			WarnWithin:  3,
		},
		Collision: CollisionConfig{
			SlowFactor:   0.5,
			SlowDuration: 2,
			PickupScore:  10,
		},
	}
}

// DefaultYAML returns the embedded default YAML.
func DefaultYAML() []byte {
	return defaultRunnerYAML
}
