package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aniketthapawork/ai-tutor/internal/llm"
	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded test-generation and feedback calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts store.QueryOpts
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		opts.Subject, _ = cmd.Flags().GetString("subject")
		opts.FailedOnly, _ = cmd.Flags().GetBool("failed")

		s, _, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.ListLLMRequests(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		writeEvents(cmd.OutOrStdout(), events)
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show one LLM call with its request and response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.GetLLMRequest(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		writeEvent(cmd.OutOrStdout(), e)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		byModel, err := s.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		writeUsage(cmd.OutOrStdout(), byPurpose, byModel)
		return nil
	},
}

func rule(n int) string { return strings.Repeat("─", n) }

func writeEvents(w io.Writer, events []models.LLMRequestEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No LLM calls recorded.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-16s  %-16s  %-24s  %6s  %6s  %6s  %s\n",
		"ID", "Time", "Purpose", "Subject", "In", "Out", "Ms", "Result")
	fmt.Fprintln(w, rule(130))
	for _, e := range events {
		result := "ok"
		if !e.Success {
			result = "failed"
		}
		fmt.Fprintf(w, "%-36s  %-16s  %-16s  %-24s  %6d  %6d  %6d  %s\n",
			e.ID, e.CreatedAt.Local().Format("01-02 15:04:05"), e.Purpose,
			clip(e.Subject, 24), e.InputTokens, e.OutputTokens, e.LatencyMs, result)
	}
}

func writeEvent(w io.Writer, e *models.LLMRequestEvent) {
	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-10s %s\n", label+":", value)
		}
	}
	field("ID", e.ID)
	field("Time", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	field("Provider", e.Provider)
	field("Model", e.Model)
	field("Purpose", e.Purpose)
	field("Subject", e.Subject)
	field("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens))
	field("Latency", fmt.Sprintf("%dms", e.LatencyMs))
	field("Error", e.ErrorMessage)

	for _, part := range []struct{ title, body string }{
		{"REQUEST", e.RequestBody},
		{"RESPONSE", e.ResponseBody},
	} {
		fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule(60), part.title, rule(60))
		if part.body == "" {
			fmt.Fprintln(w, "(not captured)")
			continue
		}
		fmt.Fprintln(w, part.body)
	}
}

func writeUsage(w io.Writer, byPurpose []store.LLMUsageStats, byModel []store.LLMModelUsage) {
	if len(byPurpose) == 0 {
		fmt.Fprintln(w, "No LLM usage recorded.")
		return
	}

	fmt.Fprintf(w, "%-16s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Avg ms")
	fmt.Fprintln(w, rule(58))
	var calls, in, out int
	for _, u := range byPurpose {
		fmt.Fprintf(w, "%-16s  %6d  %10d  %10d  %8d\n", u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	fmt.Fprintln(w, rule(58))
	fmt.Fprintf(w, "%-16s  %6d  %10d  %10d\n", "total", calls, in, out)

	if len(byModel) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%-32s  %6s  %10s\n", "Model", "Calls", "Cost USD")
	fmt.Fprintln(w, rule(52))
	var total float64
	var unpriced []string
	for _, u := range byModel {
		price := llm.LookupCost(u.Model)
		if price == nil {
			unpriced = append(unpriced, u.Model)
			fmt.Fprintf(w, "%-32s  %6d  %10s\n", clip(u.Model, 32), u.Calls, "?")
			continue
		}
		c := price.Cost(u.InputTokens, u.OutputTokens)
		total += c
		fmt.Fprintf(w, "%-32s  %6d  %10s\n", clip(u.Model, 32), u.Calls, usd(c))
	}
	fmt.Fprintln(w, rule(52))
	fmt.Fprintf(w, "%-32s  %6s  %10s\n", "total", "", usd(total))
	if len(unpriced) > 0 {
		fmt.Fprintf(w, "No price known for %s; the total leaves them out.\n", strings.Join(unpriced, ", "))
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func usd(v float64) string {
	if v < 0.01 {
		return fmt.Sprintf("$%.4f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only calls for this purpose (test-generation, feedback)")
	llmListCmd.Flags().StringP("subject", "s", "", "Only calls for this attempt ID or type/level")
	llmListCmd.Flags().Bool("failed", false, "Only failed calls")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
