package ports

import (
	"context"

	"github.com/viralforge/autopilot/internal/domain"
)

// ContentGenerator turns a planned job into produced media. Implementations
// must be safe to call repeatedly for the same job: retries reuse the seed.
type ContentGenerator interface {
	Generate(ctx context.Context, job domain.ContentJob) (domain.GeneratedContent, error)
}

// Publisher uploads a produced artifact and returns the external URL. The
// job's PublishAfter slot is honored by the platform, so uploads happen as
// soon as the job is ready. Quota errors fail fast; there is no
// partial-publish state.
type Publisher interface {
	Publish(ctx context.Context, job domain.ContentJob) (string, error)
}

// VariantStats are fresh impression/click counters per variant id, as reported
// by the analytics collaborator.
type VariantStats struct {
	Impressions int64
	Clicks      int64
}

// AnalyticsSnapshot is one fetch for a published item. Early fetches may carry
// partial data; callers tolerate missing or zero fields.
type AnalyticsSnapshot struct {
	Metrics        domain.VideoMetrics
	RetentionCurve []domain.RetentionPoint
	VariantStats   map[string]VariantStats
}

type AnalyticsSource interface {
	Fetch(ctx context.Context, externalURL string) (AnalyticsSnapshot, error)
}

// ComplianceChecker reviews a produced item before publishing. A rejection is
// returned as an error wrapping domain.ErrCompliance.
type ComplianceChecker interface {
	Review(ctx context.Context, job domain.ContentJob) error
}

// TrendSource supplies the externally estimated trend/virality score used for
// seed priority.
type TrendSource interface {
	Score(ctx context.Context, channel domain.Channel, kind domain.ContentKind) (float64, error)
}

// RateLimiter gates calls to external resources by key against a fixed-window
// budget. Acquire returns domain.ErrRateLimited when the window is exhausted.
type RateLimiter interface {
	Acquire(ctx context.Context, key string, cost int64) error
}
