package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/accord/internal/app"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve every scope's requirements and update the lock artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			dir, _ := f.GetString("dir")
			format, _ := f.GetString("report")
			dryRun, _ := f.GetBool("dry-run")
			failOnUnresolved, _ := f.GetBool("fail-on-unresolved")
			metrics, _ := f.GetBool("metrics")
			trace, _ := f.GetBool("trace")
			watch, _ := f.GetBool("watch")

			return c.app.Resolve(cmd.Context(), app.ResolveOptions{
				Dir:              dir,
				Settings:         settingsFromFlags(f),
				DryRun:           dryRun,
				Format:           format,
				FailOnUnresolved: failOnUnresolved,
				Metrics:          metrics,
				Trace:            trace,
				Watch:            watch,
			})
		},
	}
	addSettingsFlags(cmd)
	cmd.Flags().BoolP("dry-run", "n", false, "Compute and report the resolution without writing the lock artifact")
	cmd.Flags().Bool("fail-on-unresolved", false, "Exit with an error when conflicts remain unresolved")
	cmd.Flags().BoolP("watch", "w", false, "Resolve again whenever a scope file, the catalog or the advisory table changes")
	return cmd
}
