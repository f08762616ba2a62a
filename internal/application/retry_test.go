package application

import (
	"context"
	"errors"
	"testing"

	"github.com/viralforge/autopilot/internal/domain"
)

func TestGatedRetryAcceptsFirstPassingScore(t *testing.T) {
	policy := GatedRetry{Threshold: 0.85, MaxAttempts: 3}
	scores := []float64{0.70, 0.80, 0.90}
	i := 0
	attempts, err := policy.Do(context.Background(), func(context.Context) (float64, error) {
		score := scores[i]
		i++
		return score, nil
	})
	if err != nil {
		t.Fatalf("third attempt passes the gate: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestGatedRetryStopsEarlyOnPass(t *testing.T) {
	policy := GatedRetry{Threshold: 0.85, MaxAttempts: 3}
	calls := 0
	attempts, err := policy.Do(context.Background(), func(context.Context) (float64, error) {
		calls++
		return 0.95, nil
	})
	if err != nil || attempts != 1 || calls != 1 {
		t.Fatalf("a passing first attempt must stop retries: attempts=%d calls=%d err=%v", attempts, calls, err)
	}
}

func TestGatedRetryExhaustionIsQualityGate(t *testing.T) {
	policy := GatedRetry{Threshold: 0.85, MaxAttempts: 3}
	attempts, err := policy.Do(context.Background(), func(context.Context) (float64, error) {
		return 0.50, nil
	})
	if attempts != 3 {
		t.Fatalf("budget is 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, domain.ErrQualityGate) {
		t.Fatalf("exhaustion must report the quality gate, got %v", err)
	}
}

func TestGatedRetryWrapsLastAttemptError(t *testing.T) {
	policy := GatedRetry{Threshold: 0.85, MaxAttempts: 2}
	boom := errors.New("render crashed")
	_, err := policy.Do(context.Background(), func(context.Context) (float64, error) {
		return 0, boom
	})
	if !errors.Is(err, domain.ErrQualityGate) || !errors.Is(err, boom) {
		t.Fatalf("expected both gate and attempt error in the chain, got %v", err)
	}
}

func TestGatedRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	policy := GatedRetry{Threshold: 0.85, MaxAttempts: 3}
	attempts, err := policy.Do(ctx, func(context.Context) (float64, error) {
		t.Fatal("attempt must not run after cancellation")
		return 0, nil
	})
	if attempts != 0 || !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled context must stop before attempting: attempts=%d err=%v", attempts, err)
	}
}
