package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		profilePath, err := resolveProfilePath(cmd)
		if err != nil {
			return fmt.Errorf("resolve profile path: %w", err)
		}
		ps := profile.NewStore(profilePath)

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer s.Close()

		repo, err := s.EventRepo()
		if err != nil {
			return fmt.Errorf("open event repo: %w", err)
		}
		ctx := context.Background()

		p := ps.Profile
		words := 0
		for _, t := range p.ThemeHistory {
			words += len(t.WordSessions)
		}

		fmt.Println("Learner")
		fmt.Println(strings.Repeat("─", 48))
		fmt.Printf("Grade:   %s\n", p.Grade)
		fmt.Printf("Level:   %s\n", p.CurrentLevel)
		fmt.Printf("Coins:   %d\n", p.Coins)
		fmt.Printf("Themes:  %d (%d words studied)\n", len(p.ThemeHistory), words)

		answers, err := repo.AnswerStats(ctx)
		if err != nil {
			return fmt.Errorf("query answers: %w", err)
		}
		fmt.Println()
		fmt.Println("Quizzes")
		fmt.Println(strings.Repeat("─", 48))
		if answers.Total == 0 {
			fmt.Println("No quiz answers recorded yet.")
		} else {
			accuracy := float64(answers.Correct) / float64(answers.Total) * 100
			fmt.Printf("Answered: %d\n", answers.Total)
			fmt.Printf("Correct:  %d (%.1f%%)\n", answers.Correct, accuracy)
		}

		history, err := repo.LevelHistory(ctx, 10)
		if err != nil {
			return fmt.Errorf("query level history: %w", err)
		}
		if len(history) > 0 {
			fmt.Println()
			fmt.Println("Level Changes")
			fmt.Println(strings.Repeat("─", 48))
			for _, h := range history {
				fmt.Printf("%s  %s → %s  (accuracy %.0f%%)\n",
					h.Timestamp.Local().Format("2006-01-02 15:04"),
					h.From, h.To, h.Accuracy*100)
			}
		}

		return nil
	},
}
