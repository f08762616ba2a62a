package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/viralforge/autopilot/internal/contracts"
	"github.com/viralforge/autopilot/internal/domain"
)

func plannedJob(id string) domain.ContentJob {
	return domain.ContentJob{
		JobID:        id,
		ChannelID:    "ch-1",
		Kind:         domain.KindShortForm,
		Title:        "technology short",
		Status:       domain.JobStatusPlanned,
		ScheduledFor: "2025-06-02",
		CreatedAt:    monday,
		UpdatedAt:    monday,
	}
}

func TestProduceJobPassesGateOnThirdAttempt(t *testing.T) {
	scores := []float64{0.70, 0.80, 0.90}
	var mu sync.Mutex
	call := 0
	h := newHarness(func(deps *Dependencies) {
		deps.Generator = generatorFunc(func(_ context.Context, _ domain.ContentJob) (domain.GeneratedContent, error) {
			mu.Lock()
			score := scores[call]
			call++
			mu.Unlock()
			return passingContent(score), nil
		})
	})

	produced, failed := h.service.ProduceBatch(context.Background(), []domain.ContentJob{plannedJob("job-1")})
	if len(failed) != 0 {
		t.Fatalf("job should pass on the third attempt, failed: %+v", failed)
	}
	if len(produced) != 1 {
		t.Fatalf("expected 1 produced job, got %d", len(produced))
	}
	job := produced[0]
	if job.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", job.Attempts)
	}
	if job.QualityScore != 0.90 {
		t.Fatalf("quality score must be the accepted attempt's, got %.2f", job.QualityScore)
	}
	if job.Status != domain.JobStatusProduced {
		t.Fatalf("expected produced status, got %s", job.Status)
	}

	stored, err := h.stores.Jobs.GetByID(context.Background(), "job-1")
	if err != nil || stored.Status != domain.JobStatusProduced {
		t.Fatalf("produced job not persisted: %+v err=%v", stored, err)
	}
}

func TestProduceJobFailsAfterGateExhaustion(t *testing.T) {
	h := newHarness(func(deps *Dependencies) {
		deps.Generator = generatorFunc(func(_ context.Context, _ domain.ContentJob) (domain.GeneratedContent, error) {
			return passingContent(0.60), nil
		})
	})

	produced, failed := h.service.ProduceBatch(context.Background(), []domain.ContentJob{plannedJob("job-1")})
	if len(produced) != 0 || len(failed) != 1 {
		t.Fatalf("expected 1 failed job, got produced=%d failed=%d", len(produced), len(failed))
	}
	job := failed[0]
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("expected failed status, got %s", job.Status)
	}
	if job.Attempts != 3 {
		t.Fatalf("gate budget is 3 attempts, got %d", job.Attempts)
	}
	if job.FailureReason != "quality_gate_exhausted" {
		t.Fatalf("unexpected failure reason %q", job.FailureReason)
	}

	events := h.notifier.ByType(contracts.EventJobFailed)
	if len(events) != 1 {
		t.Fatalf("expected one job-failed event, got %d", len(events))
	}
}

func TestProduceBatchIsolatesFailures(t *testing.T) {
	h := newHarness(func(deps *Dependencies) {
		deps.Generator = generatorFunc(func(_ context.Context, job domain.ContentJob) (domain.GeneratedContent, error) {
			if job.JobID == "job-bad" {
				return passingContent(0.10), nil
			}
			return passingContent(0.92), nil
		})
	})

	produced, failed := h.service.ProduceBatch(context.Background(), []domain.ContentJob{
		plannedJob("job-good-1"), plannedJob("job-bad"), plannedJob("job-good-2"),
	})
	if len(produced) != 2 {
		t.Fatalf("sibling failures must not sink the batch, produced=%d", len(produced))
	}
	if len(failed) != 1 || failed[0].JobID != "job-bad" {
		t.Fatalf("expected only job-bad to fail, got %+v", failed)
	}
}

func TestProduceBatchBoundsConcurrency(t *testing.T) {
	gen := &countingGenerator{
		delay: 20 * time.Millisecond,
		fn: func(_ context.Context, _ domain.ContentJob) (domain.GeneratedContent, error) {
			return passingContent(0.90), nil
		},
	}
	h := newHarness(func(deps *Dependencies) {
		deps.Config.MaxConcurrentGenerations = 2
		deps.Generator = gen
	})

	jobs := make([]domain.ContentJob, 0, 8)
	for i := 0; i < 8; i++ {
		jobs = append(jobs, plannedJob("job-"+string(rune('a'+i))))
	}
	produced, failed := h.service.ProduceBatch(context.Background(), jobs)
	if len(produced) != 8 || len(failed) != 0 {
		t.Fatalf("all jobs should produce, got produced=%d failed=%d", len(produced), len(failed))
	}
	if gen.maxInFlight > 2 {
		t.Fatalf("generation concurrency exceeded the bound: %d", gen.maxInFlight)
	}
	if gen.calls != 8 {
		t.Fatalf("expected one generation call per job, got %d", gen.calls)
	}
}

func TestProduceJobReleasesArtifactsOnFailure(t *testing.T) {
	h := newHarness(func(deps *Dependencies) {
		deps.Generator = generatorFunc(func(_ context.Context, _ domain.ContentJob) (domain.GeneratedContent, error) {
			return passingContent(0.10), nil
		})
	})

	h.service.ProduceBatch(context.Background(), []domain.ContentJob{plannedJob("job-1")})
	cleaned := h.stores.Artifacts.Cleaned()
	if len(cleaned) != 1 || cleaned[0] != "job-1" {
		t.Fatalf("failed jobs must release temp artifacts, cleaned=%v", cleaned)
	}
}

func TestAcquireRetriesThenSurfacesRateLimit(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	h := newHarness(func(deps *Dependencies) {
		deps.Config.RateLimitRetries = 3
		deps.Limiter = limiterFunc(func(_ context.Context, _ string, _ int64) error {
			mu.Lock()
			calls++
			mu.Unlock()
			return domain.ErrRateLimited
		})
	})

	_, failed := h.service.ProduceBatch(context.Background(), []domain.ContentJob{plannedJob("job-1")})
	if len(failed) != 1 {
		t.Fatalf("rate-limit exhaustion must fail the job")
	}
	if failed[0].FailureReason != "generation_rate_limited" {
		t.Fatalf("unexpected failure reason %q", failed[0].FailureReason)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls < 3 {
		t.Fatalf("limiter should be retried, got %d calls", calls)
	}
}
