package application

import (
	"context"
	"errors"

	"github.com/viralforge/autopilot/internal/domain"
)

// GatedRetry is a bounded retry policy with a quality gate: each attempt
// returns a 0.0-1.0 score, and the policy accepts the first attempt scoring at
// or above Threshold. It is reusable for any producer/validator pair.
type GatedRetry struct {
	Threshold   float64
	MaxAttempts int
}

// Do runs attempts until one passes the gate, the attempt budget is spent, or
// the context ends. It returns the number of attempts made. Gate exhaustion is
// reported as domain.ErrQualityGate; attempt errors count against the budget
// but only the last one is wrapped into the result.
func (p GatedRetry) Do(ctx context.Context, attempt func(context.Context) (float64, error)) (int, error) {
	attempts := 0
	var lastErr error
	for attempts < p.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}
		attempts++
		score, err := attempt(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if score >= p.Threshold {
			return attempts, nil
		}
		lastErr = nil
	}
	if lastErr != nil {
		return attempts, errors.Join(domain.ErrQualityGate, lastErr)
	}
	return attempts, domain.ErrQualityGate
}
