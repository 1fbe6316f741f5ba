package core

// RuntimeConfig contains configuration passed to the engine at initialization.
// The platform layer fills it from flags and the terminal size.
type RuntimeConfig struct {
	ScreenW  int   // Screen width in characters (TUI only)
	ScreenH  int   // Screen height in characters (TUI only)
	TickRate int   // Simulation ticks per second (default 60)
	Seed     int64 // RNG seed for deterministic runs
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 60,
		Seed:     0, // 0 means use current time in platform layer
	}
}

// Dt returns the fixed simulation step in seconds.
func (c RuntimeConfig) Dt() float64 {
	if c.TickRate <= 0 {
		return 1.0 / 60.0
	}
	return 1.0 / float64(c.TickRate)
}

// Phase is the run lifecycle phase.
type Phase int

const (
	PhaseRegistering Phase = iota
	PhasePlaying
	PhaseGameOver
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseRegistering:
		return "Registering"
	case PhasePlaying:
		return "Playing"
	case PhaseGameOver:
		return "GameOver"
	default:
		return "Unknown"
	}
}

// GameState represents the current state of a run.
// Returned by Engine.State() to communicate status to the platform.
type GameState struct {
	Phase     Phase
	Score     int
	GameOver  bool
	Paused    bool
	Elapsed   float64 // Simulated seconds since the run started playing
	Distance  float64 // Agent Z coordinate
	Speed     float64 // Current forward speed
	Slowed    bool
	Remaining float64 // Seconds left before the can watchdog fires
	Warning   bool    // Watchdog advisory is active
	Obstacles int
	Pickups   int
	EndReason string
}

// StepResult is returned by Engine.Step() after each simulation tick.
type StepResult struct {
	State GameState
}
