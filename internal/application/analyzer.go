package application

import (
	"context"
	"errors"

	"github.com/viralforge/autopilot/internal/domain"
	"github.com/viralforge/autopilot/internal/ports"
)

// AnalyzeJob converts raw analytics for a published job into a VideoAnalysis.
// A cache hit short-circuits recomputation; otherwise the analysis is computed
// fully and stored whole, never partially.
func (s *Service) AnalyzeJob(ctx context.Context, job domain.ContentJob) (domain.VideoAnalysis, ports.AnalyticsSnapshot, error) {
	if cached, err := s.analyses.Get(ctx, job.JobID); err == nil {
		return cached, ports.AnalyticsSnapshot{}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.VideoAnalysis{}, ports.AnalyticsSnapshot{}, err
	}

	if err := s.acquire(ctx, limitKeyAnalytics, 1); err != nil {
		return domain.VideoAnalysis{}, ports.AnalyticsSnapshot{}, err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
	defer cancel()
	snapshot, err := s.analytics.Fetch(callCtx, job.ExternalURL)
	if err != nil {
		return domain.VideoAnalysis{}, ports.AnalyticsSnapshot{}, err
	}

	drops := domain.DetectDropPoints(snapshot.RetentionCurve)
	score := domain.OptimizationScore(snapshot.Metrics)
	insights, recommendations := domain.BuildInsights(snapshot.Metrics, drops)
	analysis := domain.VideoAnalysis{
		JobID:             job.JobID,
		Metrics:           snapshot.Metrics,
		DropPoints:        drops,
		OptimizationScore: score,
		Grade:             domain.GradeFor(score),
		Insights:          insights,
		Recommendations:   recommendations,
		AnalyzedAt:        s.nowFn(),
	}
	if err := s.analyses.Put(ctx, analysis, s.cfg.AnalysisTTL); err != nil {
		return domain.VideoAnalysis{}, ports.AnalyticsSnapshot{}, err
	}
	return analysis, snapshot, nil
}

// GetAnalysis returns the cached analysis for a job, if present.
func (s *Service) GetAnalysis(ctx context.Context, jobID string) (domain.VideoAnalysis, error) {
	return s.analyses.Get(ctx, jobID)
}

// InvalidateAnalysis drops the cached analysis so the next pass recomputes it.
func (s *Service) InvalidateAnalysis(ctx context.Context, jobID string) error {
	return s.analyses.Invalidate(ctx, jobID)
}

// thresholdAlerts compares analyzed metrics against the owning channel's
// floors and returns breach descriptions worth surfacing as notifications.
// Zero metrics are skipped: early analytics fetches may be partial.
func thresholdAlerts(ch domain.Channel, m domain.VideoMetrics) []thresholdBreach {
	var breaches []thresholdBreach
	if m.AvgRetention > 0 && ch.Targets.MinRetention > 0 && m.AvgRetention < ch.Targets.MinRetention {
		breaches = append(breaches, thresholdBreach{Metric: "retention", Observed: m.AvgRetention, Target: ch.Targets.MinRetention})
	}
	if m.CTR > 0 && ch.Targets.MinCTR > 0 && m.CTR < ch.Targets.MinCTR {
		breaches = append(breaches, thresholdBreach{Metric: "ctr", Observed: m.CTR, Target: ch.Targets.MinCTR})
	}
	if m.LikeRatio > 0 && ch.Targets.MinLikeRatio > 0 && m.LikeRatio < ch.Targets.MinLikeRatio {
		breaches = append(breaches, thresholdBreach{Metric: "like_ratio", Observed: m.LikeRatio, Target: ch.Targets.MinLikeRatio})
	}
	if m.RPM > 0 && ch.TargetRPM > 0 && m.RPM < ch.TargetRPM/2 {
		breaches = append(breaches, thresholdBreach{Metric: "rpm", Observed: m.RPM, Target: ch.TargetRPM})
	}
	return breaches
}

type thresholdBreach struct {
	Metric   string
	Observed float64
	Target   float64
}
