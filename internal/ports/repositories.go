package ports

import (
	"context"
	"time"

	"github.com/viralforge/autopilot/internal/domain"
)

// JobStore persists content jobs under job:{channel}:{id} with day and status
// indexes. Records are read-modify-written by the owning phase; the store does
// no field-level locking.
type JobStore interface {
	Save(ctx context.Context, job domain.ContentJob) error
	GetByID(ctx context.Context, jobID string) (domain.ContentJob, error)
	ListByChannelAndDate(ctx context.Context, channelID, date string) ([]domain.ContentJob, error)
	ListByStatus(ctx context.Context, status domain.JobStatus) ([]domain.ContentJob, error)
	// Archive re-stamps a terminal job with a retention TTL.
	Archive(ctx context.Context, jobID string, ttl time.Duration) error
}

// TestStore persists A/B tests under abtest:{id}.
type TestStore interface {
	Save(ctx context.Context, test domain.ABTest) error
	GetByID(ctx context.Context, testID string) (domain.ABTest, error)
	ListRunning(ctx context.Context) ([]domain.ABTest, error)
	// FindRunning returns the single active test for a (job, kind) pair,
	// or domain.ErrNotFound.
	FindRunning(ctx context.Context, jobID string, kind domain.TestKind) (domain.ABTest, error)
}

// AnalysisCache holds computed analyses under analysis:{jobId}. Entries are
// written whole or not at all.
type AnalysisCache interface {
	Get(ctx context.Context, jobID string) (domain.VideoAnalysis, error)
	Put(ctx context.Context, analysis domain.VideoAnalysis, ttl time.Duration) error
	Invalidate(ctx context.Context, jobID string) error
}

// StrategyStore holds the per-channel mutable strategy record.
type StrategyStore interface {
	Get(ctx context.Context, channelID string) (domain.Strategy, error)
	Put(ctx context.Context, channelID string, strategy domain.Strategy) error
}

// ReportStore holds daily workflow reports under dailyReport:{date}.
type ReportStore interface {
	Get(ctx context.Context, date string) (domain.DailyReport, error)
	Put(ctx context.Context, report domain.DailyReport, ttl time.Duration) error
}

// ArtifactRegistry tracks temporary production artifacts so they can be
// cleaned up once the owning job reaches published or failed.
type ArtifactRegistry interface {
	Register(ctx context.Context, jobID string, paths []string) error
	Cleanup(ctx context.Context, jobID string) error
}
