package config

import "go.trai.ch/accord/internal/core/domain"

// Workfile represents the structure of the accord.work.yaml configuration file.
type Workfile struct {
	Version    string            `yaml:"version"`
	Root       string            `yaml:"root"`
	Scopes     []string          `yaml:"scopes"`
	Catalog    string            `yaml:"catalog"`
	Advisories string            `yaml:"advisories"`
	Lock       string            `yaml:"lock"`
	History    string            `yaml:"history"`
	Resolution *ResolutionDTO    `yaml:"resolution"`
	Overrides  map[string]string `yaml:"overrides"`
}

// Scopefile represents the structure of an accord.yaml scope file.
type Scopefile struct {
	Version  string            `yaml:"version"`
	Scope    string            `yaml:"scope"`
	Root     string            `yaml:"root"`
	Requires map[string]string `yaml:"requires"`
	Optional map[string]string `yaml:"optional"`
	// Dependencies declares what a package itself requires: package -> (dependency -> constraint).
	Dependencies map[string]map[string]string `yaml:"dependencies"`
	// Resolution and Overrides are honoured in standalone mode only.
	Resolution *ResolutionDTO    `yaml:"resolution"`
	Overrides  map[string]string `yaml:"overrides"`
}

// ResolutionDTO is the resolution block shared by workfiles and standalone scope files.
type ResolutionDTO struct {
	Strategy               *string         `yaml:"strategy"`
	FallbackStrategies     *string         `yaml:"fallback_strategies"`
	CompatibilityThreshold *float64        `yaml:"compatibility_threshold"`
	Parallel               *bool           `yaml:"parallel"`
	MaxThreads             *int            `yaml:"max_threads"`
	Timeout                *float64        `yaml:"timeout"`
	PreferStable           *bool           `yaml:"prefer_stable"`
	StrictPinning          *bool           `yaml:"strict_pinning"`
	AllowPrompts           *bool           `yaml:"allow_prompts"`
	TrackHistory           *bool           `yaml:"track_history"`
	Weights                *domain.Weights `yaml:"weights"`
}
