package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aniketthapawork/ai-tutor/internal/dashboard"
	"github.com/aniketthapawork/ai-tutor/internal/streak"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top learners",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, _, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		entries, err := dashboard.NewService(s, streak.NewEngine(nil)).Leaderboard(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No learners yet.")
			return nil
		}

		fmt.Printf("%-5s  %-36s  %8s  %6s\n", "Rank", "User", "Points", "Streak")
		fmt.Println(strings.Repeat("─", 62))
		for _, e := range entries {
			name := e.UserID
			if e.FirstName != nil {
				name = *e.FirstName
				if e.LastName != nil {
					name += " " + *e.LastName
				}
			}
			fmt.Printf("%-5d  %-36s  %8d  %6d\n", e.Rank, clip(name, 36), e.TotalPoints, e.CurrentStreak)
		}
		return nil
	},
}

func init() {
	leaderboardCmd.Flags().IntP("limit", "n", dashboard.DefaultLeaderboardLimit, "Number of learners to show")
}
