package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/accord/internal/app"
)

func (c *CLI) newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the lock artifact matches a fresh resolution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			dir, _ := f.GetString("dir")
			format, _ := f.GetString("report")
			metrics, _ := f.GetBool("metrics")
			trace, _ := f.GetBool("trace")

			return c.app.Verify(cmd.Context(), app.VerifyOptions{
				Dir:      dir,
				Settings: settingsFromFlags(f),
				Format:   format,
				Metrics:  metrics,
				Trace:    trace,
			})
		},
	}
	addSettingsFlags(cmd)
	return cmd
}
