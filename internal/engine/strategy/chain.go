package strategy

import (
	"context"

	"go.trai.ch/accord/internal/core/domain"
)

// Chain walks the strategies in order. The first strategy that assigns a version or defers
// ends the walk; when all of them fail the returned result is Failed.
// Cancellation is checked before every step and reported as the context error.
func Chain(ctx context.Context, chain []domain.Strategy, subj Subject, env Env) (Result, error) {
	var attempts []string
	res := Result{Verdict: Failed}
	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res = Evaluate(s, subj, env)
		attempts = append(attempts, res.Attempts...)
		if res.Verdict != Failed {
			break
		}
	}
	res.Attempts = attempts
	return res, nil
}
