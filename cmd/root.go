package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "inquiry",
	Short: "AI English tutor for kids",
	Long:  "Inquiry — terminal app where children photograph the world around them and learn English by asking an AI tutor about it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite event log (overrides INQUIRY_DB env var)")
	rootCmd.PersistentFlags().String("profile", "", "Path to profile JSON file (overrides INQUIRY_PROFILE env var)")

	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// resolveDBPath returns the event log path using --db flag (highest
// priority), then INQUIRY_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, nil
	}
	return store.DefaultDBPath()
}

// resolveProfilePath returns the profile path using --profile flag,
// then INQUIRY_PROFILE env var, then the default XDG path.
func resolveProfilePath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("profile"); p != "" {
		return p, nil
	}
	return profile.DefaultPath()
}
