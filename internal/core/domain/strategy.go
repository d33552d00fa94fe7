package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// StrategyKind names one of the resolution strategies.
type StrategyKind string

const (
	// StrategyLatestCompatible picks the highest version admitted by every constraint.
	StrategyLatestCompatible StrategyKind = "latest-compatible"
	// StrategyPinnedVersion picks the single exact version pinned by the requirements.
	StrategyPinnedVersion StrategyKind = "pinned-version"
	// StrategySmartSelection picks the best-scoring candidate above the compatibility threshold.
	StrategySmartSelection StrategyKind = "smart-selection"
	// StrategyConservative picks the highest stable version admitted by every constraint.
	StrategyConservative StrategyKind = "conservative"
	// StrategyAggressive picks the highest version including pre-releases.
	StrategyAggressive StrategyKind = "aggressive"
	// StrategyManualResolution applies a configured override or defers to a human.
	StrategyManualResolution StrategyKind = "manual-resolution"
	// StrategyAutomaticDetection reports conflicts without assigning anything.
	StrategyAutomaticDetection StrategyKind = "automatic-detection"
	// StrategyHistoryTracking reuses a previous decision for the same conflict signature.
	StrategyHistoryTracking StrategyKind = "history-tracking"
	// StrategyHybrid runs its members as a nested fallback chain.
	StrategyHybrid StrategyKind = "hybrid"
)

var strategyKinds = []StrategyKind{
	StrategyLatestCompatible,
	StrategyPinnedVersion,
	StrategySmartSelection,
	StrategyConservative,
	StrategyAggressive,
	StrategyManualResolution,
	StrategyAutomaticDetection,
	StrategyHistoryTracking,
	StrategyHybrid,
}

// StrategyKinds returns every known strategy kind.
func StrategyKinds() []StrategyKind {
	out := make([]StrategyKind, len(strategyKinds))
	copy(out, strategyKinds)
	return out
}

// Strategy is a resolution strategy. Members is only used by StrategyHybrid.
type Strategy struct {
	Kind    StrategyKind
	Members []Strategy
}

// Hybrid builds a hybrid strategy from members.
func Hybrid(members ...Strategy) Strategy {
	return Strategy{Kind: StrategyHybrid, Members: members}
}

// Simple builds a non-hybrid strategy.
func Simple(kind StrategyKind) Strategy {
	return Strategy{Kind: kind}
}

// String renders the strategy in its wire form, e.g. "hybrid(pinned-version|latest-compatible)".
func (s Strategy) String() string {
	if s.Kind != StrategyHybrid {
		return string(s.Kind)
	}
	names := make([]string, len(s.Members))
	for i, m := range s.Members {
		names[i] = m.String()
	}
	return string(StrategyHybrid) + "(" + strings.Join(names, "|") + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStrategy parses a strategy name. Hybrids are written as "hybrid(a|b|...)" and may nest.
func ParseStrategy(raw string) (Strategy, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, "_", "-")

	if rest, ok := strings.CutPrefix(name, string(StrategyHybrid)); ok {
		inner, ok := strings.CutPrefix(rest, "(")
		if !ok || !strings.HasSuffix(inner, ")") {
			return Strategy{}, zerr.With(ErrInvalidHybrid, "strategy", raw)
		}
		inner = strings.TrimSuffix(inner, ")")
		parts, err := splitTopLevel(inner, '|')
		if err != nil || len(parts) == 0 {
			return Strategy{}, zerr.With(ErrInvalidHybrid, "strategy", raw)
		}
		members := make([]Strategy, 0, len(parts))
		for _, p := range parts {
			m, err := ParseStrategy(p)
			if err != nil {
				return Strategy{}, err
			}
			members = append(members, m)
		}
		return Hybrid(members...), nil
	}

	for _, k := range strategyKinds {
		if k != StrategyHybrid && string(k) == name {
			return Simple(k), nil
		}
	}
	return Strategy{}, zerr.With(ErrUnknownStrategy, "strategy", raw)
}

// ParseStrategyList parses a comma separated list of strategies. Empty input yields no strategies.
func ParseStrategyList(raw string) ([]Strategy, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts, err := splitTopLevel(raw, ',')
	if err != nil {
		return nil, zerr.With(ErrInvalidHybrid, "strategies", raw)
	}
	out := make([]Strategy, 0, len(parts))
	for _, p := range parts {
		s, err := ParseStrategy(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// splitTopLevel splits s on sep, ignoring separators nested in parentheses.
func splitTopLevel(s string, sep rune) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, ErrInvalidHybrid
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, ErrInvalidHybrid
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	for _, p := range parts {
		if p == "" {
			return nil, ErrInvalidHybrid
		}
	}
	return parts, nil
}
