package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.trai.ch/accord/internal/core/domain"
)

// addSettingsFlags registers the flags that override the workspace resolution block.
func addSettingsFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("strategy", "s", "", "Primary resolution strategy, e.g. latest-compatible or hybrid(pinned-version|conservative)")
	f.String("fallback", "", "Comma separated fallback strategies tried after the primary")
	f.Float64("threshold", 0.5, "Minimum smart-selection score, within [0,1]")
	f.Bool("parallel", true, "Resolve independent components concurrently")
	f.IntP("max-threads", "j", domain.DefaultMaxWorkers, "Maximum number of concurrent workers")
	f.Float64("timeout", 0, "Abort unfinished components after this many seconds (0 disables)")
	f.Bool("prefer-stable", true, "Ignore pre-releases when stable candidates exist")
	f.Bool("strict-pinning", true, "Refuse manual overrides that violate a constraint")
	f.Bool("allow-prompts", false, "Mention interactive resolution in manual hints")
	f.Bool("track-history", false, "Record decisions and reuse them on later runs")
	f.StringP("dir", "C", ".", "Directory to start the workspace search from")
	f.StringP("report", "r", "text", "Report format: text or json")
	f.Bool("metrics", false, "Print resolution metrics in Prometheus text format after the report")
	f.Bool("trace", false, "Log a timing line for every traced operation")
}

// settingsFromFlags returns only the settings the user set explicitly.
func settingsFromFlags(f *pflag.FlagSet) domain.Settings {
	var s domain.Settings
	if f.Changed("strategy") {
		v, _ := f.GetString("strategy")
		s.Strategy = &v
	}
	if f.Changed("fallback") {
		v, _ := f.GetString("fallback")
		s.FallbackStrategies = &v
	}
	if f.Changed("threshold") {
		v, _ := f.GetFloat64("threshold")
		s.CompatibilityThreshold = &v
	}
	if f.Changed("parallel") {
		v, _ := f.GetBool("parallel")
		s.Parallel = &v
	}
	if f.Changed("max-threads") {
		v, _ := f.GetInt("max-threads")
		s.MaxThreads = &v
	}
	if f.Changed("timeout") {
		v, _ := f.GetFloat64("timeout")
		s.TimeoutSeconds = &v
	}
	if f.Changed("prefer-stable") {
		v, _ := f.GetBool("prefer-stable")
		s.PreferStable = &v
	}
	if f.Changed("strict-pinning") {
		v, _ := f.GetBool("strict-pinning")
		s.StrictPinning = &v
	}
	if f.Changed("allow-prompts") {
		v, _ := f.GetBool("allow-prompts")
		s.AllowPrompts = &v
	}
	if f.Changed("track-history") {
		v, _ := f.GetBool("track-history")
		s.TrackHistory = &v
	}
	return s
}
