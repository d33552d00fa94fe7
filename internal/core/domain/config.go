package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// DefaultMaxWorkers is the worker pool size used when none is configured.
const DefaultMaxWorkers = 4

// Weights are the SmartSelection score factors.
type Weights struct {
	Satisfaction float64 `yaml:"satisfaction" json:"satisfaction"`
	Recency      float64 `yaml:"recency" json:"recency"`
	History      float64 `yaml:"history" json:"history"`
}

// DefaultWeights returns the default SmartSelection weights.
func DefaultWeights() Weights {
	return Weights{Satisfaction: 0.6, Recency: 0.3, History: 0.1}
}

// Normalized scales the weights so they sum to one.
// When history tracking is off the history weight is dropped before scaling.
func (w Weights) Normalized(trackHistory bool) Weights {
	if !trackHistory {
		w.History = 0
	}
	sum := w.Satisfaction + w.Recency + w.History
	if sum <= 0 {
		return Weights{Satisfaction: 1}
	}
	return Weights{
		Satisfaction: w.Satisfaction / sum,
		Recency:      w.Recency / sum,
		History:      w.History / sum,
	}
}

// ResolutionConfig controls how conflicts are resolved.
type ResolutionConfig struct {
	Primary                Strategy
	Fallbacks              []Strategy
	CompatibilityThreshold float64
	PreferStable           bool
	StrictPinning          bool
	TrackHistory           bool
	Parallel               bool
	MaxWorkers             int
	// Timeout bounds a whole run. Zero disables it.
	Timeout      time.Duration
	AllowPrompts bool
	Weights      Weights
	// Overrides are manual version choices consumed by StrategyManualResolution.
	Overrides map[string]Version
}

// DefaultConfig returns the configuration used when nothing else is specified.
func DefaultConfig() ResolutionConfig {
	return ResolutionConfig{
		Primary:                Simple(StrategyLatestCompatible),
		CompatibilityThreshold: 0.5,
		PreferStable:           true,
		StrictPinning:          true,
		Parallel:               true,
		MaxWorkers:             DefaultMaxWorkers,
		Weights:                DefaultWeights(),
	}
}

// Chain returns the primary strategy followed by the fallbacks.
func (c ResolutionConfig) Chain() []Strategy {
	chain := make([]Strategy, 0, 1+len(c.Fallbacks))
	chain = append(chain, c.Primary)
	return append(chain, c.Fallbacks...)
}

// Validate checks the configuration for values the engine cannot work with.
func (c ResolutionConfig) Validate() error {
	if c.CompatibilityThreshold < 0 || c.CompatibilityThreshold > 1 {
		return zerr.With(ErrInvalidThreshold, "compatibility_threshold", c.CompatibilityThreshold)
	}
	if c.MaxWorkers <= 0 {
		return zerr.With(ErrInvalidWorkers, "max_workers", c.MaxWorkers)
	}
	if c.Timeout < 0 {
		return zerr.With(ErrInvalidTimeout, "timeout", c.Timeout.String())
	}
	w := c.Weights
	if w.Satisfaction < 0 || w.Recency < 0 || w.History < 0 || w.Satisfaction+w.Recency+w.History <= 0 {
		return ErrInvalidWeights
	}
	for _, s := range c.Chain() {
		if err := validateStrategy(s); err != nil {
			return err
		}
	}
	return nil
}

func validateStrategy(s Strategy) error {
	if s.Kind == "" {
		return zerr.With(ErrUnknownStrategy, "strategy", "")
	}
	if s.Kind != StrategyHybrid {
		return nil
	}
	if len(s.Members) == 0 {
		return ErrInvalidHybrid
	}
	for _, m := range s.Members {
		if err := validateStrategy(m); err != nil {
			return err
		}
	}
	return nil
}
