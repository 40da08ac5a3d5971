package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomo-edu/inquiry/internal/llm"
	"github.com/tomo-edu/inquiry/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM usage",
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		repo, err := s.EventRepo()
		if err != nil {
			return fmt.Errorf("open event repo: %w", err)
		}

		usage, err := repo.LLMUsage(context.Background())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		if usage.Requests == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		fmt.Println("Usage")
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("Requests:  %d (%d failed)\n", usage.Requests, usage.Failures)
		fmt.Printf("Tokens:    %d in / %d out\n", usage.InputTokens, usage.OutputTokens)

		if len(usage.ByModel) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Println("Estimated Cost (USD)")
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-32s  %8s  %10s  %10s  %9s\n",
			"Model", "Requests", "Input", "Output", "Cost")
		fmt.Println(strings.Repeat("─", 72))

		var totalCost float64
		var unknownModels []string
		for _, mu := range usage.ByModel {
			cost := llm.LookupCost(mu.Model)
			if cost == nil {
				unknownModels = append(unknownModels, mu.Model)
				fmt.Printf("%-32s  %8d  %10d  %10d  %9s\n",
					truncate(mu.Model, 32), mu.Requests, mu.InputTokens, mu.OutputTokens, "?")
				continue
			}
			c := cost.Cost(mu.InputTokens, mu.OutputTokens)
			totalCost += c
			fmt.Printf("%-32s  %8d  %10d  %10d  %9s\n",
				truncate(mu.Model, 32), mu.Requests, mu.InputTokens, mu.OutputTokens, formatCost(c))
		}

		fmt.Println(strings.Repeat("─", 72))
		label := "TOTAL"
		if len(unknownModels) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Printf("%-32s  %8s  %10s  %10s  %9s\n",
			label, "", "", "", formatCost(totalCost))

		if len(unknownModels) > 0 {
			fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
		}

		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmCmd.AddCommand(llmStatsCmd)
}
