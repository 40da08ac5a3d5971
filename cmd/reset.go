package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the learner profile and event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Println("This deletes the profile and all recorded events.")
			fmt.Println("Re-run with --yes to confirm.")
			return nil
		}

		profilePath, err := resolveProfilePath(cmd)
		if err != nil {
			return fmt.Errorf("resolve profile path: %w", err)
		}
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}

		for _, path := range []string{profilePath, dbPath} {
			if err := os.Remove(path); err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return fmt.Errorf("remove %s: %w", path, err)
			}
			fmt.Println("Removed", path)
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
