package strategy

import (
	"fmt"

	"go.trai.ch/accord/internal/core/domain"
)

// Score is the SmartSelection score of one candidate.
type Score struct {
	Version      domain.Version
	Satisfaction float64
	Recency      float64
	History      float64
	Total        float64
}

// Scores rates every candidate as a weighted sum of the fraction of constraints it
// satisfies, its recency rank normalized to [0,1], and its historical success rate when
// history tracking is on. Weights are normalized to sum to one.
func Scores(subj Subject, env Env) []Score {
	pool := subj.Candidates
	if env.Config.PreferStable {
		if stable := domain.StableOnly(pool); len(stable) > 0 {
			pool = stable
		}
	}
	w := env.Config.Weights.Normalized(env.Config.TrackHistory)

	out := make([]Score, len(pool))
	for i, v := range pool {
		s := Score{Version: v, Satisfaction: 1, Recency: 1}
		if n := len(subj.Constraints); n > 0 {
			met := 0
			for _, c := range subj.Constraints {
				if c.Check(v) {
					met++
				}
			}
			s.Satisfaction = float64(met) / float64(n)
		}
		if len(pool) > 1 {
			s.Recency = float64(i) / float64(len(pool)-1)
		}
		if env.Config.TrackHistory {
			s.History = env.History.SuccessRate(subj.Name, v)
		}
		s.Total = w.Satisfaction*s.Satisfaction + w.Recency*s.Recency + w.History*s.History
		out[i] = s
	}
	return out
}

func smartSelection(subj Subject, env Env) Result {
	var best *Score
	scores := Scores(subj, env)
	for i := range scores {
		s := &scores[i]
		if !domain.SatisfiesAll(s.Version, subj.Constraints) {
			continue
		}
		if best == nil || s.Total > best.Total ||
			(s.Total == best.Total && domain.PreferVersion(s.Version, best.Version) > 0) {
			best = s
		}
	}
	if best == nil {
		return failed(domain.StrategySmartSelection, "no candidate satisfies every constraint")
	}
	threshold := env.Config.CompatibilityThreshold
	if best.Total < threshold {
		return failed(domain.StrategySmartSelection,
			fmt.Sprintf("best candidate %s scored %.2f, below threshold %.2f", best.Version, best.Total, threshold))
	}
	return assigned(domain.StrategySmartSelection, best.Version)
}
