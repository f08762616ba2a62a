package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/viralforge/autopilot/internal/adapters/events"
	"github.com/viralforge/autopilot/internal/adapters/memory"
	"github.com/viralforge/autopilot/internal/domain"
	"github.com/viralforge/autopilot/internal/ports"
)

// Function adapters so tests can stub collaborators inline.

type generatorFunc func(ctx context.Context, job domain.ContentJob) (domain.GeneratedContent, error)

func (f generatorFunc) Generate(ctx context.Context, job domain.ContentJob) (domain.GeneratedContent, error) {
	return f(ctx, job)
}

type publisherFunc func(ctx context.Context, job domain.ContentJob) (string, error)

func (f publisherFunc) Publish(ctx context.Context, job domain.ContentJob) (string, error) {
	return f(ctx, job)
}

type analyticsFunc func(ctx context.Context, externalURL string) (ports.AnalyticsSnapshot, error)

func (f analyticsFunc) Fetch(ctx context.Context, externalURL string) (ports.AnalyticsSnapshot, error) {
	return f(ctx, externalURL)
}

type complianceFunc func(ctx context.Context, job domain.ContentJob) error

func (f complianceFunc) Review(ctx context.Context, job domain.ContentJob) error {
	return f(ctx, job)
}

type trendFunc func(ctx context.Context, ch domain.Channel, kind domain.ContentKind) (float64, error)

func (f trendFunc) Score(ctx context.Context, ch domain.Channel, kind domain.ContentKind) (float64, error) {
	return f(ctx, ch, kind)
}

type limiterFunc func(ctx context.Context, key string, cost int64) error

func (f limiterFunc) Acquire(ctx context.Context, key string, cost int64) error {
	return f(ctx, key, cost)
}

func allowAll() limiterFunc {
	return func(context.Context, string, int64) error { return nil }
}

// countingGenerator records call ordering and peak concurrency.
type countingGenerator struct {
	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
	delay       time.Duration
	fn          generatorFunc
}

func (g *countingGenerator) Generate(ctx context.Context, job domain.ContentJob) (domain.GeneratedContent, error) {
	g.mu.Lock()
	g.calls++
	g.inFlight++
	if g.inFlight > g.maxInFlight {
		g.maxInFlight = g.inFlight
	}
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	defer func() {
		g.mu.Lock()
		g.inFlight--
		g.mu.Unlock()
	}()
	return g.fn(ctx, job)
}

func passingContent(score float64) domain.GeneratedContent {
	return domain.GeneratedContent{
		Script:        "script",
		MediaPath:     "/media/out.mp4",
		ThumbnailPath: "/media/thumb.png",
		Description:   "desc",
		QualityScore:  score,
		TempPaths:     []string{"/tmp/work"},
	}
}

type harness struct {
	service  *Service
	stores   *memory.Stores
	notifier *events.MemoryNotifier
}

func testChannel() domain.Channel {
	return domain.Channel{
		ChannelID:    "ch-1",
		Name:         "Test Channel",
		Niche:        "technology",
		AudienceTier: domain.TierEstablished,
		Cadence: domain.CadenceRules{
			LongFormDays: []time.Weekday{time.Monday, time.Thursday},
			ShortsPerDay: 2,
			ShortsMinGap: 4 * time.Hour,
		},
		TargetRPM: 5,
		Targets: domain.OptimizationTargets{
			MinRetention: 0.40,
			MinCTR:       0.04,
			MinLikeRatio: 0.03,
		},
	}
}

// monday is a fixed reference instant used across scheduler tests.
var monday = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func newHarness(mutate func(*Dependencies)) *harness {
	stores := memory.NewStores()
	notifier := events.NewMemoryNotifier()
	deps := Dependencies{
		Config: Config{
			QualityThreshold:         0.85,
			MaxProductionAttempts:    3,
			MaxConcurrentGenerations: 3,
			CollaboratorTimeout:      time.Second,
			RateLimitRetries:         2,
			RateLimitBackoff:         time.Millisecond,
		},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Jobs:       stores.Jobs,
		Tests:      stores.Tests,
		Analyses:   stores.Analyses,
		Strategies: stores.Strategies,
		Reports:    stores.Reports,
		Artifacts:  stores.Artifacts,
		Generator: generatorFunc(func(_ context.Context, _ domain.ContentJob) (domain.GeneratedContent, error) {
			return passingContent(0.90), nil
		}),
		Publisher: publisherFunc(func(_ context.Context, job domain.ContentJob) (string, error) {
			return "https://videos.example/" + job.JobID, nil
		}),
		Analytics: analyticsFunc(func(_ context.Context, _ string) (ports.AnalyticsSnapshot, error) {
			return ports.AnalyticsSnapshot{
				Metrics: domain.VideoMetrics{
					Views:        10000,
					AvgRetention: 0.62,
					LikeRatio:    0.05,
					CommentRatio: 0.012,
					RPM:          6,
					CTR:          0.07,
					Impressions:  40000,
				},
				RetentionCurve: []domain.RetentionPoint{
					{OffsetSeconds: 0, Retention: 0.95},
					{OffsetSeconds: 30, Retention: 0.90},
				},
			}, nil
		}),
		Compliance: complianceFunc(func(_ context.Context, _ domain.ContentJob) error { return nil }),
		Trends: trendFunc(func(_ context.Context, _ domain.Channel, _ domain.ContentKind) (float64, error) {
			return 0.6, nil
		}),
		Limiter:  allowAll(),
		Notifier: notifier,
		Channels: []domain.Channel{testChannel()},
	}
	if mutate != nil {
		mutate(&deps)
	}
	svc := NewService(deps)
	svc.SetNowFunc(func() time.Time { return monday })
	return &harness{service: svc, stores: stores, notifier: notifier}
}
