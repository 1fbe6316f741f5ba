package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/canrun/internal/storage"
)

var flagLimit int

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the leaderboard",
	Long: `Display the best score of each registered player, followed by
totals over every recorded run.

Examples:
  canrun scores
  canrun scores --limit 25`,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of players to show")
}

func runScores(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	top, err := store.TopScores(flagLimit)
	if err != nil {
		return err
	}

	fmt.Println("Leaderboard")
	fmt.Println()

	if len(top) == 0 {
		fmt.Println("No players registered yet.")
		fmt.Println()
		fmt.Println("Run 'canrun play' to register and set the first score!")
		return nil
	}

	nameLen := len("Player")
	for _, p := range top {
		nameLen = max(nameLen, len(p.Name))
	}

	fmt.Printf("  %-4s  %-*s  %-16s  %s\n", "Rank", nameLen, "Player", "City", "Best")
	fmt.Printf("  %-4s  %-*s  %-16s  %s\n", "----", nameLen, "------", "----", "----")
	for i, p := range top {
		fmt.Printf("  %-4d  %-*s  %-16s  %d\n", i+1, nameLen, p.Name, p.City, p.BestScore)
	}

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Printf("Runs: %d  Best: %d  Average: %.1f", stats.Runs, stats.BestScore, stats.AvgScore)
	if !stats.LastPlayed.IsZero() {
		fmt.Printf("  Last played: %s", stats.LastPlayed.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	return nil
}
