package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	var fromYAML RunnerConfig
	if err := yaml.Unmarshal(DefaultYAML(), &fromYAML); err != nil {
		t.Fatalf("embedded YAML does not parse: %v", err)
	}
	want := DefaultRunnerConfig()
	if fromYAML.World.VisibleSegments != want.World.VisibleSegments ||
		fromYAML.Hazards.SpawnDistance != want.Hazards.SpawnDistance ||
		fromYAML.Watchdog.MaxSilence != want.Watchdog.MaxSilence ||
		fromYAML.Difficulty.PickupFloor != want.Difficulty.PickupFloor ||
		len(fromYAML.Hazards.Obstacles) != len(want.Hazards.Obstacles) {
		t.Errorf("embedded YAML diverges from DefaultRunnerConfig: %+v", fromYAML)
	}
	if err := fromYAML.Validate(); err != nil {
		t.Errorf("embedded defaults invalid: %v", err)
	}
}

func TestLoadRunnerCustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runner.yaml")
	data := []byte("watchdog:\n  max_silence: 5\nagent:\n  forward_speed: 20\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRunner(path)
	if err != nil {
		t.Fatalf("LoadRunner() error = %v", err)
	}
	if cfg.Watchdog.MaxSilence != 5 {
		t.Errorf("MaxSilence = %f, expected 5", cfg.Watchdog.MaxSilence)
	}
	if cfg.Agent.ForwardSpeed != 20 {
		t.Errorf("ForwardSpeed = %f, expected 20", cfg.Agent.ForwardSpeed)
	}
	// Untouched sections keep defaults
	if cfg.World.SegmentLength != 50 {
		t.Errorf("SegmentLength = %f, expected default 50", cfg.World.SegmentLength)
	}
}

func TestLoadRunnerErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadRunner(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing custom config")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("world: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRunner(bad); err == nil {
		t.Error("expected parse error")
	}

	invalidPath := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalidPath, []byte("world:\n  visible_segments: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadRunner(invalidPath)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunnerConfig)
	}{
		{"no segments", func(c *RunnerConfig) { c.World.VisibleSegments = 0 }},
		{"decoration range", func(c *RunnerConfig) { c.World.MinDecorations = 8 }},
		{"no obstacles", func(c *RunnerConfig) { c.Hazards.Obstacles = nil }},
		{"min beyond spawn", func(c *RunnerConfig) { c.Hazards.MinDistance = 60 }},
		{"interval under floor", func(c *RunnerConfig) { c.Difficulty.ObstacleInterval = 0.5 }},
		{"zero pickup floor", func(c *RunnerConfig) { c.Difficulty.PickupFloor = 0 }},
		{"slow factor", func(c *RunnerConfig) { c.Collision.SlowFactor = 1.5 }},
		{"watchdog", func(c *RunnerConfig) { c.Watchdog.MaxSilence = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultRunnerConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, expected ErrInvalidConfig", err)
			}
		})
	}
}

func TestApplyRunnerPreset(t *testing.T) {
	cfg := DefaultRunnerConfig()
	ApplyRunnerPreset(&cfg, DifficultyFixed)
	if cfg.Difficulty.Enabled {
		t.Error("fixed preset should disable the ramp")
	}

	cfg = DefaultRunnerConfig()
	ApplyRunnerPreset(&cfg, DifficultyHard)
	if cfg.Watchdog.MaxSilence >= DefaultRunnerConfig().Watchdog.MaxSilence {
		t.Error("hard preset should shorten the watchdog")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("hard preset invalid: %v", err)
	}

	cfg = DefaultRunnerConfig()
	ApplyRunnerPreset(&cfg, DifficultyEasy)
	if err := cfg.Validate(); err != nil {
		t.Errorf("easy preset invalid: %v", err)
	}

	if ParsePreset("nightmare") != "" {
		t.Error("unknown preset should parse to empty")
	}
}

func TestDifficultyRampMonotoneWithFloors(t *testing.T) {
	cfg := DefaultRunnerConfig().Difficulty
	d := NewDifficultyManager(cfg)

	prevObs, prevPick := d.ObstacleInterval(), d.PickupInterval()
	for i := 0; i < 100; i++ {
		if !d.Ramp() {
			t.Fatal("enabled ramp should apply")
		}
		obs, pick := d.ObstacleInterval(), d.PickupInterval()
		if obs > prevObs || pick > prevPick {
			t.Fatalf("step %d: intervals grew (%f, %f) -> (%f, %f)", i, prevObs, prevPick, obs, pick)
		}
		if obs < cfg.ObstacleFloor || pick < cfg.PickupFloor {
			t.Fatalf("step %d: intervals below floor (%f, %f)", i, obs, pick)
		}
		prevObs, prevPick = obs, pick
	}
	if d.ObstacleInterval() != cfg.ObstacleFloor {
		t.Errorf("ObstacleInterval() = %f, expected floor %f", d.ObstacleInterval(), cfg.ObstacleFloor)
	}
	if d.PickupInterval() != cfg.PickupFloor {
		t.Errorf("PickupInterval() = %f, expected floor %f", d.PickupInterval(), cfg.PickupFloor)
	}
}

func TestDifficultyDisabledAndPenalty(t *testing.T) {
	cfg := DefaultRunnerConfig().Difficulty
	cfg.Enabled = false
	d := NewDifficultyManager(cfg)
	if d.Ramp() {
		t.Error("disabled ramp should not apply")
	}
	if d.ObstacleInterval() != 3 {
		t.Errorf("ObstacleInterval() = %f, expected 3", d.ObstacleInterval())
	}

	d.Penalize(1)
	if d.PickupInterval() != 3 {
		t.Errorf("PickupInterval() = %f, expected 3 after penalty", d.PickupInterval())
	}
	d.Reset()
	if d.PickupInterval() != 2 {
		t.Errorf("PickupInterval() = %f, expected 2 after reset", d.PickupInterval())
	}
}
