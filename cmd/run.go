package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomo-edu/inquiry/internal/app"
	"github.com/tomo-edu/inquiry/internal/coins"
	"github.com/tomo-edu/inquiry/internal/inquiry"
	"github.com/tomo-edu/inquiry/internal/llm"
	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/prompts"
	"github.com/tomo-edu/inquiry/internal/store"
	"github.com/tomo-edu/inquiry/internal/task"
)

// runApp opens the profile and event log, builds dependencies, and
// launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()

	profilePath, err := resolveProfilePath(cmd)
	if err != nil {
		return fmt.Errorf("resolve profile path: %w", err)
	}
	ps := profile.NewStore(profilePath)

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	eventRepo, err := st.EventRepo()
	if err != nil {
		return fmt.Errorf("open event repo: %w", err)
	}

	cfg := llm.ConfigFromEnv()
	if cfgErr := cfg.Validate(); cfgErr != nil {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg = discovered
		} else {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", cfgErr)
			fmt.Fprintln(os.Stderr, "Set INQUIRY_GEMINI_API_KEY (or another provider key) to enable AI features.")
			cfg.Provider = "mock"
		}
	}
	provider, err := llm.NewProvider(ctx, cfg, eventRepo)
	if err != nil {
		return fmt.Errorf("initialize LLM provider: %w", err)
	}

	svc := inquiry.NewService(provider, prompts.New(promptsDir()), inquiry.DefaultConfig())
	svc.SetLearner(ps.Profile.Grade, ps.Profile.CurrentLevel)

	return app.Run(app.Deps{
		Profile: ps,
		Inquiry: svc,
		Coins:   coins.NewService(ps, eventRepo),
		Events:  eventRepo,
		Runner:  task.New(),
	})
}

// promptsDir resolves the prompt template directory. Missing templates
// are tolerated downstream, so a nonexistent directory is fine.
func promptsDir() string {
	if d := os.Getenv("INQUIRY_PROMPTS"); d != "" {
		return d
	}
	return "prompts"
}
