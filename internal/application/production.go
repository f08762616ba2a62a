package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/autopilot/internal/contracts"
	"github.com/viralforge/autopilot/internal/domain"
)

// Rate-limit keys for external resources.
const (
	limitKeyGeneration = "generation"
	limitKeyPublishing = "publishing"
	limitKeyAnalytics  = "analytics"
)

// ProduceBatch runs all planned jobs through the quality-gated production
// pipeline with at most cfg.MaxConcurrentGenerations jobs producing at once.
// Jobs in a batch execute independently: one failure never cancels or blocks
// its batch-mates. Returns the produced and failed job sets.
func (s *Service) ProduceBatch(ctx context.Context, jobs []domain.ContentJob) (produced, failed []domain.ContentJob) {
	if len(jobs) == 0 {
		return nil, nil
	}

	sem := make(chan struct{}, s.cfg.MaxConcurrentGenerations)
	results := make([]domain.ContentJob, len(jobs))
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.produceJob(ctx, jobs[i])
		}(i)
	}
	wg.Wait()

	for _, job := range results {
		if job.Status == domain.JobStatusProduced {
			produced = append(produced, job)
		} else {
			failed = append(failed, job)
		}
	}
	return produced, failed
}

// produceJob drives one job through the gate: planned -> producing ->
// produced, or terminal failed once the attempt budget is spent.
func (s *Service) produceJob(ctx context.Context, job domain.ContentJob) domain.ContentJob {
	now := s.nowFn()
	if err := job.TransitionTo(domain.JobStatusProducing, now); err != nil {
		s.logger.WarnContext(ctx, "job not producible", "job_id", job.JobID, "status", job.Status, "error", err)
		return job
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "persist producing status", "job_id", job.JobID, "error", err)
		return s.failJob(ctx, job, "store_unavailable")
	}

	policy := GatedRetry{Threshold: s.cfg.QualityThreshold, MaxAttempts: s.cfg.MaxProductionAttempts}
	var content domain.GeneratedContent
	attempts, err := policy.Do(ctx, func(ctx context.Context) (float64, error) {
		if err := s.acquire(ctx, limitKeyGeneration, 1); err != nil {
			return 0, err
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
		defer cancel()
		candidate, err := s.generator.Generate(callCtx, job)
		if err != nil {
			return 0, err
		}
		content = candidate
		return candidate.QualityScore, nil
	})
	job.Attempts = attempts

	if err != nil {
		reason := "quality_gate_exhausted"
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			reason = "generation_rate_limited"
		case !errors.Is(err, domain.ErrQualityGate):
			reason = "generation_failed"
		}
		s.logger.InfoContext(ctx, "production failed", "job_id", job.JobID, "attempts", attempts, "reason", reason)
		return s.failJob(ctx, job, reason)
	}

	job.QualityScore = content.QualityScore
	job.Artifact = domain.Artifact{
		Script:         content.Script,
		MediaPath:      content.MediaPath,
		ThumbnailPaths: []string{content.ThumbnailPath},
		Description:    content.Description,
		TempPaths:      content.TempPaths,
	}
	if len(content.TempPaths) > 0 {
		if err := s.artifacts.Register(ctx, job.JobID, content.TempPaths); err != nil {
			s.logger.WarnContext(ctx, "register temp artifacts", "job_id", job.JobID, "error", err)
		}
	}
	if err := job.TransitionTo(domain.JobStatusProduced, s.nowFn()); err != nil {
		return s.failJob(ctx, job, "lifecycle_violation")
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "persist produced job", "job_id", job.JobID, "error", err)
		return s.failJob(ctx, job, "store_unavailable")
	}
	return job
}

// failJob moves a job to terminal failed, releases its temp artifacts, and
// emits the item-failure event. Sibling jobs are unaffected.
func (s *Service) failJob(ctx context.Context, job domain.ContentJob, reason string) domain.ContentJob {
	job.Status = domain.JobStatusFailed
	job.FailureReason = reason
	job.UpdatedAt = s.nowFn()
	if err := s.jobs.Save(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "persist failed job", "job_id", job.JobID, "error", err)
	}
	if err := s.artifacts.Cleanup(ctx, job.JobID); err != nil {
		s.logger.WarnContext(ctx, "cleanup temp artifacts", "job_id", job.JobID, "error", err)
	}
	s.notify(ctx, contracts.EventJobFailed, job.ChannelID, contracts.JobFailedData{
		JobID:     job.JobID,
		ChannelID: job.ChannelID,
		Reason:    reason,
		Attempts:  job.Attempts,
	})
	return job
}

// acquire waits on the rate limiter with bounded backoff. Exhausting the
// retry budget fails only the enclosing item step.
func (s *Service) acquire(ctx context.Context, key string, cost int64) error {
	var err error
	for i := 0; i < s.cfg.RateLimitRetries; i++ {
		err = s.limiter.Acquire(ctx, key, cost)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrRateLimited) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.RateLimitBackoff << uint(i)):
		}
	}
	return err
}

func (s *Service) notify(ctx context.Context, eventType, partitionKey string, data interface{}) {
	if s.notifier == nil {
		return
	}
	event := contracts.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		OccurredAt:    s.nowFn(),
		PartitionKey:  partitionKey,
		SourceService: s.cfg.ServiceName,
		SchemaVersion: "1.0",
		Data:          data,
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "notification delivery failed", "event_type", eventType, "error", err)
	}
}
