package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/viralforge/autopilot/internal/contracts"
	"github.com/viralforge/autopilot/internal/domain"
	"github.com/viralforge/autopilot/internal/ports"
)

// CreateTest opens an A/B test for a job. It requires at least two variants
// and enforces the one-running-test-per-(job, kind) invariant.
func (s *Service) CreateTest(ctx context.Context, jobID string, kind domain.TestKind, payloads []string) (domain.ABTest, error) {
	if len(payloads) < 2 {
		return domain.ABTest{}, fmt.Errorf("%w: a test needs at least two variants", domain.ErrInvalidInput)
	}
	if _, err := s.tests.FindRunning(ctx, jobID, kind); err == nil {
		return domain.ABTest{}, fmt.Errorf("%w: active %s test exists for job %s", domain.ErrConflict, kind, jobID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.ABTest{}, err
	}

	now := s.nowFn()
	test := domain.ABTest{
		TestID:    uuid.NewString(),
		JobID:     jobID,
		Kind:      kind,
		Status:    domain.TestStatusRunning,
		StartedAt: now,
	}
	for i, payload := range payloads {
		test.Variants = append(test.Variants, domain.Variant{
			VariantID: fmt.Sprintf("%s-v%d", test.TestID, i+1),
			Payload:   payload,
		})
	}
	if err := s.tests.Save(ctx, test); err != nil {
		return domain.ABTest{}, err
	}
	return test, nil
}

// RecordImpression accumulates impression counters for a variant.
func (s *Service) RecordImpression(ctx context.Context, testID, variantID string, delta int64) (domain.ABTest, error) {
	return s.recordCounter(ctx, testID, variantID, delta, false)
}

// RecordClick accumulates click counters for a variant.
func (s *Service) RecordClick(ctx context.Context, testID, variantID string, delta int64) (domain.ABTest, error) {
	return s.recordCounter(ctx, testID, variantID, delta, true)
}

func (s *Service) recordCounter(ctx context.Context, testID, variantID string, delta int64, click bool) (domain.ABTest, error) {
	if delta <= 0 {
		return domain.ABTest{}, fmt.Errorf("%w: delta must be positive", domain.ErrInvalidInput)
	}
	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		return domain.ABTest{}, err
	}
	if test.Status != domain.TestStatusRunning {
		return domain.ABTest{}, domain.ErrTestCompleted
	}
	found := false
	for i := range test.Variants {
		if test.Variants[i].VariantID != variantID {
			continue
		}
		if click {
			test.Variants[i].Clicks += delta
		} else {
			test.Variants[i].Impressions += delta
		}
		found = true
		break
	}
	if !found {
		return domain.ABTest{}, domain.ErrVariantUnknown
	}
	test.Recompute()
	s.maybeResolve(ctx, &test)
	if err := s.tests.Save(ctx, test); err != nil {
		return domain.ABTest{}, err
	}
	return test, nil
}

// GetTest returns a single test by id.
func (s *Service) GetTest(ctx context.Context, testID string) (domain.ABTest, error) {
	return s.tests.GetByID(ctx, testID)
}

// maybeResolve completes a running test once confidence crosses the threshold
// or the test exceeds its maximum age. An aged-out test without confidence is
// closed as inconclusive.
func (s *Service) maybeResolve(ctx context.Context, test *domain.ABTest) {
	if test.Status != domain.TestStatusRunning {
		return
	}
	now := s.nowFn()
	aged := now.Sub(test.StartedAt) >= s.cfg.TestMaxAge

	if test.Confidence >= s.cfg.ConfidenceThreshold {
		if winner, ok := test.Leader(); ok {
			test.WinnerID = winner.VariantID
		}
		test.Status = domain.TestStatusCompleted
		test.Outcome = domain.OutcomeWon
		test.EndedAt = &now
	} else if aged {
		test.Status = domain.TestStatusCompleted
		test.Outcome = domain.OutcomeInconclusive
		test.EndedAt = &now
		s.logger.InfoContext(ctx, "ab test closed inconclusive",
			"test_id", test.TestID, "job_id", test.JobID, "confidence", test.Confidence)
	}
	if test.Status == domain.TestStatusCompleted {
		s.notify(ctx, contracts.EventABTestCompleted, test.JobID, contracts.ABTestCompletedData{
			TestID:     test.TestID,
			JobID:      test.JobID,
			Kind:       string(test.Kind),
			WinnerID:   test.WinnerID,
			Outcome:    string(test.Outcome),
			Confidence: test.Confidence,
		})
	}
}

// refreshTests folds fresh analytics counters into every running test for a
// job and resolves or expires tests as warranted. Returns how many closed.
func (s *Service) refreshTests(ctx context.Context, jobID string, stats map[string]ports.VariantStats) (closed int, err error) {
	running, err := s.tests.ListRunning(ctx)
	if err != nil {
		return 0, err
	}
	for _, test := range running {
		if test.JobID != jobID {
			continue
		}
		for i := range test.Variants {
			if fresh, ok := stats[test.Variants[i].VariantID]; ok {
				if fresh.Impressions > test.Variants[i].Impressions {
					test.Variants[i].Impressions = fresh.Impressions
				}
				if fresh.Clicks > test.Variants[i].Clicks {
					test.Variants[i].Clicks = fresh.Clicks
				}
			}
		}
		test.Recompute()
		s.maybeResolve(ctx, &test)
		if test.Status == domain.TestStatusCompleted {
			closed++
		}
		if err := s.tests.Save(ctx, test); err != nil {
			return closed, err
		}
	}
	return closed, nil
}
