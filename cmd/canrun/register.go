package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/canrun/internal/storage"
)

var (
	flagRegName string
	flagRegAge  int
	flagRegCity string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a player profile",
	Long: `Register a player without opening the terminal UI. Emails are
unique regardless of case.

Examples:
  canrun register --name Ana --age 21 --email ana@example.com --city Cali`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&flagRegName, "name", "", "Player name")
	registerCmd.Flags().IntVar(&flagRegAge, "age", 0, "Player age")
	registerCmd.Flags().StringVar(&flagEmail, "email", "", "Player email")
	registerCmd.Flags().StringVar(&flagRegCity, "city", "", "Player city")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")
}

func runRegister(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	p, err := store.RegisterProfile(storage.ProfileRecord{
		Name:  flagRegName,
		Age:   flagRegAge,
		Email: flagEmail,
		City:  flagRegCity,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Registered %s <%s> (id %d)\n", p.Name, p.Email, p.ID)
	fmt.Printf("Run 'canrun play --email %s' to start.\n", p.Email)
	return nil
}
