package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/export"
	"github.com/vovakirdan/canrun/internal/game"
	"github.com/vovakirdan/canrun/internal/registry"
	"github.com/vovakirdan/canrun/internal/run"
	"github.com/vovakirdan/canrun/internal/storage"

	// Import pilots to register them
	_ "github.com/vovakirdan/canrun/internal/agent"
)

var (
	flagPilot   string
	flagRuns    int
	flagMaxTime float64
	flagCSV     string
	flagRecord  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run headless simulations driven by a pilot",
	Long: `Run the engine without a terminal UI. A pilot steers the agent and
each run lasts until the watchdog ends it or --max-time passes.

Seeds are --seed, --seed+1, ... so a batch is reproducible.

Examples:
  canrun simulate --pilot greedy --runs 20
  canrun simulate --pilot weaver --difficulty hard --csv runs.csv
  canrun simulate --pilot greedy --record --email bot@example.com`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&flagPilot, "pilot", "greedy", "Pilot ID (see 'canrun pilots')")
	simulateCmd.Flags().IntVar(&flagRuns, "runs", 10, "Number of runs")
	simulateCmd.Flags().Float64Var(&flagMaxTime, "max-time", 300, "Simulated seconds before a run is ended")
	simulateCmd.Flags().StringVar(&flagCSV, "csv", "", "Write one CSV row per run to this path")
	simulateCmd.Flags().BoolVar(&flagRecord, "record", false, "Save runs to the database")
	simulateCmd.Flags().StringVar(&flagEmail, "email", "", "Credit recorded runs to this registered email")
}

// ReasonTimeLimit ends simulated runs that outlast --max-time.
const ReasonTimeLimit = "simulation time limit"

func runSimulate(_ *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	preset, err := presetFlag()
	if err != nil {
		return err
	}
	cfg, err := loadRunnerConfig(preset)
	if err != nil {
		return err
	}
	if !registry.Exists(flagPilot) {
		return fmt.Errorf("unknown pilot %q, run 'canrun pilots' to list them", flagPilot)
	}
	if flagRuns < 1 {
		return fmt.Errorf("--runs must be at least 1")
	}

	var store *storage.Store
	var identity run.Identity = run.Guest{Name: flagPilot}
	if flagRecord {
		store, err = storage.Open(flagDBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if flagEmail != "" {
			if _, err := store.ProfileByEmail(flagEmail); err != nil {
				return fmt.Errorf("cannot credit runs to %s: %w", flagEmail, err)
			}
			identity = store.Identity(flagEmail)
		}
	}

	csvLog, err := export.CreateRunLog(flagCSV)
	if err != nil {
		return err
	}
	defer csvLog.Close()

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	scores := make([]float64, 0, flagRuns)
	distances := make([]float64, 0, flagRuns)
	durations := make([]float64, 0, flagRuns)

	fmt.Printf("  %-4s  %-6s  %-9s  %-8s  %-5s  %s\n", "Run", "Score", "Distance", "Time", "Hits", "Ended by")
	fmt.Printf("  %-4s  %-6s  %-9s  %-8s  %-5s  %s\n", "---", "-----", "--------", "----", "----", "--------")

	for i := 0; i < flagRuns; i++ {
		rt := core.RuntimeConfig{TickRate: flagFPS, Seed: seed + int64(i)}
		sum, runID, err := simulateOne(cfg, rt, identity, store, logger)
		if err != nil {
			return err
		}

		fmt.Printf("  %-4d  %-6d  %-9.0f  %-8s  %-5d  %s\n",
			i+1, sum.Score, sum.Distance, fmt.Sprintf("%.1fs", sum.Duration), sum.ObstacleHits, sum.Reason)

		scores = append(scores, float64(sum.Score))
		distances = append(distances, sum.Distance)
		durations = append(durations, sum.Duration)

		row := export.RunRow{
			ID:        runID,
			Pilot:     flagPilot,
			Score:     sum.Score,
			Distance:  sum.Distance,
			Duration:  sum.Duration,
			EndReason: sum.Reason,
		}
		if p, ok := identity.CurrentProfile(); ok {
			row.ProfileID = p.ID
		}
		if err := csvLog.Write(row); err != nil {
			return err
		}
	}

	fmt.Println()
	printStat("score", scores)
	printStat("distance", distances)
	printStat("time (s)", durations)
	return nil
}

// simulateOne drives one run to completion.
func simulateOne(cfg config.RunnerConfig, rt core.RuntimeConfig, identity run.Identity, store *storage.Store, logger *log.Logger) (game.Summary, string, error) {
	pilot, err := registry.Create(flagPilot)
	if err != nil {
		return game.Summary{}, "", err
	}

	var eng *game.Engine
	var recorder *storage.RunRecorder
	deps := game.Deps{Identity: identity, Pilot: pilot, Logger: logger.With("seed", rt.Seed)}
	if store != nil {
		recorder = storage.NewRunRecorder(store, identity,
			storage.WithPilot(flagPilot),
			storage.WithDetails(func() storage.RunDetails {
				sum := eng.Summary()
				return storage.RunDetails{Distance: sum.Distance, Duration: sum.Duration, EndReason: sum.Reason}
			}))
		deps.Sink = recorder
	}

	eng, err = game.New(cfg, rt, deps)
	if err != nil {
		return game.Summary{}, "", err
	}

	in := core.NewInputFrame()
	for !eng.State().GameOver {
		st := eng.Step(in).State
		if st.Elapsed >= flagMaxTime {
			eng.End(ReasonTimeLimit)
		}
	}
	if err := eng.Err(); err != nil {
		return game.Summary{}, "", err
	}

	runID := ""
	if recorder != nil {
		runID = recorder.RunID()
	}
	return eng.Summary(), runID, nil
}

func printStat(name string, xs []float64) {
	mean, std := stat.MeanStdDev(xs, nil)
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo, hi = min(lo, x), max(hi, x)
	}
	fmt.Printf("  %-9s mean %9.1f  sd %8.1f  min %9.1f  max %9.1f\n", name, mean, std, lo, hi)
}
