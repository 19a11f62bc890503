package colsense

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/colsense/colsense/internal/update"
)

var updateCheckOnly bool

func init() {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update colsense to the latest GitHub release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if updateCheckOnly {
				latest, newer, err := update.Check(version, false)
				if err != nil {
					return err
				}
				if !newer {
					_, _ = fmt.Fprintf(out, "colsense v%s is up to date\n", version)
					return nil
				}
				_, _ = fmt.Fprintf(out, "v%s is available (running v%s)\n", latest, version)
				return nil
			}
			v, err := update.SelfUpdate(version)
			if err != nil {
				return fmt.Errorf("self update: %w", err)
			}
			_, _ = fmt.Fprintf(out, "updated to v%s; re-run your command\n", v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&updateCheckOnly, "check", false, "only report whether a newer release exists")
	rootCmd.AddCommand(cmd)
}
