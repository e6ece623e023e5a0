package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aniketthapawork/ai-tutor/internal/dashboard"
	"github.com/aniketthapawork/ai-tutor/internal/streak"
)

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Show learning statistics for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		loc, err := cfg.Learning.Location()
		if err != nil {
			return err
		}
		p, err := dashboard.NewService(s, streak.NewEngine(loc)).Progress(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		sep := strings.Repeat("─", 40)
		fmt.Printf("User:              %s\n", args[0])
		fmt.Println(sep)
		fmt.Printf("Completed lessons: %d\n", p.Stats.CompletedLessons)
		fmt.Printf("Tests completed:   %d\n", p.Stats.TestsCompleted)
		fmt.Printf("Average score:     %.1f\n", p.Stats.AverageScore)
		fmt.Printf("Streak:            %d (next: %d-day %s)\n", p.Streak.Current, p.Streak.Next.Days, p.Streak.Next.Title)
		fmt.Println(sep)
		b := p.Stats.SkillsBreakdown
		fmt.Printf("Reading  %4.1f   Essay    %4.1f\n", b.Reading, b.Essay)
		fmt.Printf("Letter   %4.1f   Grammar  %4.1f\n", b.Letter, b.Grammar)

		if len(p.StreakHistory) > 0 {
			fmt.Println(sep)
			for _, d := range p.StreakHistory {
				fmt.Printf("%s  %3d activities  %5d points\n", d.Day, d.ActivitiesCompleted, d.PointsEarned)
			}
		}
		if len(p.Achievements) > 0 {
			fmt.Println(sep)
			for _, a := range p.Achievements {
				fmt.Printf("%s  %s\n", a.EarnedAt.In(loc).Format(time.DateOnly), a.Title)
			}
		}
		return nil
	},
}
