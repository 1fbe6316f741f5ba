// canrun is an endless runner for the terminal: keep moving, dodge
// obstacles, and grab a can before the watchdog runs out.
//
// Usage:
//
//	canrun play              - Run in the terminal
//	canrun menu              - Start menu to pick a difficulty
//	canrun simulate          - Headless runs driven by a pilot
//	canrun register          - Register a player profile
//	canrun scores            - Show the leaderboard
//	canrun export <file>     - Export profiles as CSV
//	canrun pilots            - List available pilots
//
// Global flags:
//
//	--fps <rate>         - Set tick rate (default: 60)
//	--seed <value>       - Set RNG seed for reproducible runs
//	--db <path>          - Set database path (default: ~/.canrun/canrun.db)
//	--config <path>      - Custom runner config YAML
//	--difficulty <name>  - Difficulty preset: easy, normal, hard, fixed
//	--log-level <level>  - debug, info, warn, error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/canrun/internal/config"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagDifficulty string
	flagLogLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "canrun",
	Short: "Can Run - an endless runner in your terminal",
	Long: `Can Run streams an endless track ahead of you. Obstacles slow you
down; cans keep you alive. Go too long without a can and the run is over.

Available commands:
  play      - Run in the terminal
  menu      - Pick a difficulty interactively
  simulate  - Headless runs driven by a pilot
  register  - Register a player profile
  scores    - View the leaderboard
  export    - Export profiles as CSV
  pilots    - List available pilots

Examples:
  canrun play --email ana@example.com
  canrun menu
  canrun simulate --pilot greedy --runs 20
  canrun scores`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (simulation steps per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.canrun/canrun.db", "Path to the profiles database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom runner config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(pilotsCmd)
}

// newLogger builds the stderr logger for headless commands.
func newLogger() (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "canrun",
		Level:           level,
	}), nil
}

// loadRunnerConfig loads the config and applies --difficulty.
func loadRunnerConfig(preset config.DifficultyPreset) (config.RunnerConfig, error) {
	cfg, err := config.LoadRunner(flagConfig)
	if err != nil {
		return config.RunnerConfig{}, err
	}
	if preset != "" {
		config.ApplyRunnerPreset(&cfg, preset)
		if err := cfg.Validate(); err != nil {
			return config.RunnerConfig{}, err
		}
	}
	return cfg, nil
}

// presetFlag parses --difficulty. Empty keeps the loaded config as is.
func presetFlag() (config.DifficultyPreset, error) {
	if flagDifficulty == "" {
		return "", nil
	}
	p := config.ParsePreset(flagDifficulty)
	if p == "" {
		return "", fmt.Errorf("unknown difficulty %q (want easy, normal, hard, or fixed)", flagDifficulty)
	}
	return p, nil
}
