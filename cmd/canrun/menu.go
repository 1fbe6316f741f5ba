package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/canrun/internal/platform/tui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start with a difficulty picker menu",
	Long: `Start in interactive menu mode.

Use arrow keys or j/k to navigate, Enter to start a run, Tab for the
leaderboard. After you quit a run, you return to the menu.

Examples:
  canrun menu
  canrun menu --email ana@example.com
  canrun menu --fps 30`,
	Run: runMenu,
}

func init() {
	menuCmd.Flags().StringVar(&flagEmail, "email", "", "Registered email to play as")
	menuCmd.Flags().StringVar(&flagExport, "export", "", "Rewrite the profile CSV at this path after every run")
	menuCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "Play as guest without saving runs")
}

func runMenu(_ *cobra.Command, _ []string) {
	base, err := loadRunnerConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	logger, closeLog := fileLogger()
	defer closeLog()

	store := openStore()
	if store != nil {
		defer store.Close()
	}

	cfg := terminalRuntime()

	for {
		menuResult, err := tui.RunMenu(cfg, base)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}

		// Update config with any size changes
		cfg = menuResult.Config

		if menuResult.Quit {
			break
		}

		if menuResult.WantsScoreboard {
			goBack, sbErr := tui.RunScoreboard(store, cfg.ScreenW, cfg.ScreenH)
			if sbErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", sbErr)
			}
			if goBack {
				continue
			}
			break
		}

		if err := playSession(menuResult.Preset, cfg, store, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
	}
}
