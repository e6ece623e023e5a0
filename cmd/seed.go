package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the starter modules and tests into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if res.Modules == 0 && res.Tests == 0 {
			fmt.Println("Database already has content; nothing seeded.")
			return nil
		}
		fmt.Printf("Seeded %d modules and %d tests.\n", res.Modules, res.Tests)
		return nil
	},
}
