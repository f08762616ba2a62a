package application

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/viralforge/autopilot/internal/domain"
	"github.com/viralforge/autopilot/internal/ports"
)

type Config struct {
	ServiceName              string
	QualityThreshold         float64
	MaxProductionAttempts    int
	MaxConcurrentGenerations int
	ConfidenceThreshold      float64
	TestMaxAge               time.Duration
	AnalysisTTL              time.Duration
	ArchiveTTL               time.Duration
	ReportTTL                time.Duration
	CollaboratorTimeout      time.Duration
	RateLimitRetries         int
	RateLimitBackoff         time.Duration
}

// RunSummary is what one orchestrator invocation reports back.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Planned    int
	Produced   int
	Failed     int
	Published  int
	Analyzed   int
	TestsOpen  int
	TestsDone  int
	Alerts     []string
	Failures   []string
}

type Service struct {
	cfg    Config
	logger *slog.Logger

	jobs       ports.JobStore
	tests      ports.TestStore
	analyses   ports.AnalysisCache
	strategies ports.StrategyStore
	reports    ports.ReportStore
	artifacts  ports.ArtifactRegistry

	generator  ports.ContentGenerator
	publisher  ports.Publisher
	analytics  ports.AnalyticsSource
	compliance ports.ComplianceChecker
	trends     ports.TrendSource
	limiter    ports.RateLimiter
	notifier   ports.Notifier

	channels []domain.Channel

	// running guards RunWorkflow: one run at a time, concurrent calls are
	// rejected rather than queued.
	running atomic.Bool
	nowFn   func() time.Time
}

type Dependencies struct {
	Config Config
	Logger *slog.Logger

	Jobs       ports.JobStore
	Tests      ports.TestStore
	Analyses   ports.AnalysisCache
	Strategies ports.StrategyStore
	Reports    ports.ReportStore
	Artifacts  ports.ArtifactRegistry

	Generator  ports.ContentGenerator
	Publisher  ports.Publisher
	Analytics  ports.AnalyticsSource
	Compliance ports.ComplianceChecker
	Trends     ports.TrendSource
	Limiter    ports.RateLimiter
	Notifier   ports.Notifier

	Channels []domain.Channel
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "content-autopilot"
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = 0.85
	}
	if cfg.MaxProductionAttempts <= 0 {
		cfg.MaxProductionAttempts = 3
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 3
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = domain.ConfidenceThreshold
	}
	if cfg.TestMaxAge <= 0 {
		cfg.TestMaxAge = 7 * 24 * time.Hour
	}
	if cfg.AnalysisTTL <= 0 {
		cfg.AnalysisTTL = 6 * time.Hour
	}
	if cfg.ArchiveTTL <= 0 {
		cfg.ArchiveTTL = 30 * 24 * time.Hour
	}
	if cfg.ReportTTL <= 0 {
		cfg.ReportTTL = 30 * 24 * time.Hour
	}
	if cfg.CollaboratorTimeout <= 0 {
		cfg.CollaboratorTimeout = 30 * time.Second
	}
	if cfg.RateLimitRetries <= 0 {
		cfg.RateLimitRetries = 3
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = 200 * time.Millisecond
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:        cfg,
		logger:     logger,
		jobs:       deps.Jobs,
		tests:      deps.Tests,
		analyses:   deps.Analyses,
		strategies: deps.Strategies,
		reports:    deps.Reports,
		artifacts:  deps.Artifacts,
		generator:  deps.Generator,
		publisher:  deps.Publisher,
		analytics:  deps.Analytics,
		compliance: deps.Compliance,
		trends:     deps.Trends,
		limiter:    deps.Limiter,
		notifier:   deps.Notifier,
		channels:   deps.Channels,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock. Test hook, mirrors the nowFn injection used
// across services.
func (s *Service) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// Channels returns the configured channel set with current strategies applied.
func (s *Service) Channels() []domain.Channel {
	out := make([]domain.Channel, len(s.channels))
	copy(out, s.channels)
	return out
}
