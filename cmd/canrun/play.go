package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/canrun/internal/config"
	"github.com/vovakirdan/canrun/internal/core"
	"github.com/vovakirdan/canrun/internal/platform/tui"
	"github.com/vovakirdan/canrun/internal/storage"
)

var (
	flagEmail  string
	flagExport string
	flagNoDB   bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run in the terminal",
	Long: `Start a run. Without --email, or with an email that is not
registered yet, a registration form opens first.

Controls:
  Left/Right, A/D  - Steer
  P/Esc            - Pause
  E                - End the run
  R                - Restart (after game over)
  Ctrl+S           - Screenshot
  Q/Ctrl+C         - Quit

Difficulty options:
  easy   - Slower ramp, longer can window
  normal - Default ramp
  hard   - Faster agent, denser obstacles, shorter can window
  fixed  - No ramp

Examples:
  canrun play
  canrun play --email ana@example.com --difficulty hard
  canrun play --export ~/canrun_profiles.csv
  canrun play --no-db`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagEmail, "email", "", "Registered email to play as")
	playCmd.Flags().StringVar(&flagExport, "export", "", "Rewrite the profile CSV at this path after every run")
	playCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "Play as guest without saving runs")
}

// terminalRuntime builds a runtime config sized to the terminal.
func terminalRuntime() core.RuntimeConfig {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: flagFPS,
		Seed:     flagSeed,
	}
}

// fileLogger logs to ~/.canrun/canrun.log so the alt screen stays clean.
// The returned closer is never nil.
func fileLogger() (*log.Logger, func()) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, func() {}
	}
	dir := filepath.Join(home, ".canrun")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "canrun.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, func() {}
	}
	l := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          "canrun",
		Level:           level,
	})
	return l, func() { f.Close() }
}

// openStore opens the database unless --no-db is set.
func openStore() *storage.Store {
	if flagNoDB {
		return nil
	}
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open database, playing as guest: %v\n", err)
		return nil
	}
	return store
}

func playSession(preset config.DifficultyPreset, rt core.RuntimeConfig, store *storage.Store, logger *log.Logger) error {
	cfg, err := loadRunnerConfig(preset)
	if err != nil {
		return err
	}
	res, err := tui.Run(tui.Session{
		Config:  cfg,
		Runtime: rt,
		Store:   store,
		Email:   flagEmail,
		Export:  flagExport,
		Logger:  logger,
	})
	// Later sessions in the same process skip the form
	if res.Email != "" {
		flagEmail = res.Email
	}
	return err
}

func runPlay(_ *cobra.Command, _ []string) error {
	preset, err := presetFlag()
	if err != nil {
		return err
	}

	logger, closeLog := fileLogger()
	defer closeLog()

	store := openStore()
	if store != nil {
		defer store.Close()
	}

	return playSession(preset, terminalRuntime(), store, logger)
}
