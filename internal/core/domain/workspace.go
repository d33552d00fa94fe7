package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// Scope is a sub-project that declares its own requirements.
type Scope struct {
	Name         ScopeID
	Path         string
	Requirements []Requirement
}

// Settings is the partially specified resolution configuration read from files or flags.
// Nil fields leave the underlying value untouched.
type Settings struct {
	Strategy               *string
	FallbackStrategies     *string
	CompatibilityThreshold *float64
	Parallel               *bool
	MaxThreads             *int
	TimeoutSeconds         *float64
	PreferStable           *bool
	StrictPinning          *bool
	AllowPrompts           *bool
	TrackHistory           *bool
	Weights                *Weights
}

// Apply writes every set field onto cfg.
func (s Settings) Apply(cfg *ResolutionConfig) error {
	if s.Strategy != nil {
		primary, err := ParseStrategy(*s.Strategy)
		if err != nil {
			return err
		}
		cfg.Primary = primary
	}
	if s.FallbackStrategies != nil {
		fallbacks, err := ParseStrategyList(*s.FallbackStrategies)
		if err != nil {
			return err
		}
		cfg.Fallbacks = fallbacks
	}
	if s.CompatibilityThreshold != nil {
		cfg.CompatibilityThreshold = *s.CompatibilityThreshold
	}
	if s.Parallel != nil {
		cfg.Parallel = *s.Parallel
	}
	if s.MaxThreads != nil {
		cfg.MaxWorkers = *s.MaxThreads
	}
	if s.TimeoutSeconds != nil {
		cfg.Timeout = time.Duration(*s.TimeoutSeconds * float64(time.Second))
	}
	if s.PreferStable != nil {
		cfg.PreferStable = *s.PreferStable
	}
	if s.StrictPinning != nil {
		cfg.StrictPinning = *s.StrictPinning
	}
	if s.AllowPrompts != nil {
		cfg.AllowPrompts = *s.AllowPrompts
	}
	if s.TrackHistory != nil {
		cfg.TrackHistory = *s.TrackHistory
	}
	if s.Weights != nil {
		cfg.Weights = *s.Weights
	}
	return nil
}

// Workspace is a loaded repository: its scopes, resolution settings and file locations.
type Workspace struct {
	Root         string
	Scopes       []Scope
	Settings     Settings
	Overrides    map[string]string
	CatalogPath  string
	AdvisoryPath string
	LockPath     string
	HistoryPath  string
}

// Requirements returns every requirement declared by every scope, sorted.
func (w *Workspace) Requirements() []Requirement {
	var out []Requirement
	for _, s := range w.Scopes {
		out = append(out, s.Requirements...)
	}
	return SortRequirements(out)
}

// Config builds the resolution configuration for this workspace on top of DefaultConfig.
func (w *Workspace) Config() (ResolutionConfig, error) {
	cfg := DefaultConfig()
	if err := w.Settings.Apply(&cfg); err != nil {
		return cfg, err
	}
	if len(w.Overrides) > 0 {
		cfg.Overrides = make(map[string]Version, len(w.Overrides))
		for name, raw := range w.Overrides {
			v, err := ParseVersion(raw)
			if err != nil {
				return cfg, zerr.With(err, "override", name)
			}
			cfg.Overrides[name] = v
		}
	}
	return cfg, nil
}
