package unit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/viralforge/autopilot/internal/adapters/events"
	"github.com/viralforge/autopilot/internal/adapters/memory"
	"github.com/viralforge/autopilot/internal/adapters/studio"
	"github.com/viralforge/autopilot/internal/application"
	"github.com/viralforge/autopilot/internal/contracts"
	"github.com/viralforge/autopilot/internal/domain"
)

type fixture struct {
	service  *application.Service
	stores   *memory.Stores
	notifier *events.MemoryNotifier
}

func channels() []domain.Channel {
	return []domain.Channel{
		{
			ChannelID:    "ch-tech",
			Name:         "Deep Dive Tech",
			Niche:        "technology",
			AudienceTier: domain.TierEstablished,
			Cadence: domain.CadenceRules{
				LongFormDays: []time.Weekday{time.Monday},
				ShortsPerDay: 2,
				ShortsMinGap: 4 * time.Hour,
			},
			TargetRPM: 5,
			Targets:   domain.OptimizationTargets{MinRetention: 0.40, MinCTR: 0.04, MinLikeRatio: 0.03},
		},
		{
			ChannelID:    "ch-food",
			Name:         "Weeknight Kitchen",
			Niche:        "cooking",
			AudienceTier: domain.TierEmerging,
			Cadence: domain.CadenceRules{
				ShortsPerDay: 1,
			},
			TargetRPM: 2,
		},
	}
}

func newFixture(t *testing.T, generatorEndpoint, publisherEndpoint string) *fixture {
	t.Helper()
	stores := memory.NewStores()
	notifier := events.NewMemoryNotifier()
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			QualityThreshold:         0.85,
			MaxProductionAttempts:    3,
			MaxConcurrentGenerations: 2,
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
		Generator:  studio.NewGeneratorClient(generatorEndpoint),
		Publisher:  studio.NewPublisherClient(publisherEndpoint),
		Analytics:  studio.NewAnalyticsClient("http://analytics:9103"),
		Compliance: studio.NewComplianceClient("http://compliance:9104"),
		Trends:     studio.NewTrendClient("http://trends:9105"),
		Limiter:    memory.NewRateLimiter(1000, time.Minute),
		Notifier:   notifier,
		Channels:   channels(),
	})
	service.SetNowFunc(func() time.Time {
		return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC) // a Monday
	})
	return &fixture{service: service, stores: stores, notifier: notifier}
}

func TestWorkflowEndToEnd(t *testing.T) {
	f := newFixture(t, "http://generator:9101", "http://publisher:9102")
	ctx := context.Background()

	summary, err := f.service.RunWorkflow(ctx)
	if err != nil {
		t.Fatalf("run workflow: %v", err)
	}

	// ch-tech: 1 long-form + 2 shorts; ch-food: 1 short.
	if summary.Planned != 4 {
		t.Fatalf("expected 4 planned jobs, got %d", summary.Planned)
	}
	if summary.Produced != 4 || summary.Failed != 0 {
		t.Fatalf("deterministic generator passes the gate, got produced=%d failed=%d", summary.Produced, summary.Failed)
	}
	if summary.Published != 4 || summary.Analyzed != 4 {
		t.Fatalf("all produced jobs should publish and analyze, got published=%d analyzed=%d", summary.Published, summary.Analyzed)
	}
	if summary.TestsOpen != 8 {
		t.Fatalf("each job opens two tests, got %d", summary.TestsOpen)
	}

	analyzed, err := f.stores.Jobs.ListByStatus(ctx, domain.JobStatusAnalyzed)
	if err != nil || len(analyzed) != 4 {
		t.Fatalf("store should hold 4 analyzed jobs, got %d err=%v", len(analyzed), err)
	}
	for _, job := range analyzed {
		analysis, err := f.service.GetAnalysis(ctx, job.JobID)
		if err != nil {
			t.Fatalf("analysis missing for %s: %v", job.JobID, err)
		}
		if analysis.Grade == "" || analysis.OptimizationScore < 0 || analysis.OptimizationScore > 100 {
			t.Fatalf("malformed analysis %+v", analysis)
		}
	}

	// Temp artifacts were released when jobs published.
	if pending := f.stores.Artifacts.Pending(); len(pending) != 0 {
		t.Fatalf("published jobs must release temp artifacts, pending=%v", pending)
	}

	running, err := f.stores.Tests.ListRunning(ctx)
	if err != nil {
		t.Fatalf("list running tests: %v", err)
	}
	if len(running)+summary.TestsDone != 8 {
		t.Fatalf("tests must be running or resolved, running=%d done=%d", len(running), summary.TestsDone)
	}

	report, err := f.service.GetDailyReport(ctx, "2025-06-02")
	if err != nil {
		t.Fatalf("daily report: %v", err)
	}
	if report.Published != 4 || report.RunsStarted != 1 {
		t.Fatalf("report mismatch: %+v", report)
	}
	if got := len(f.notifier.ByType(contracts.EventContentPublished)); got != 4 {
		t.Fatalf("expected 4 published events, got %d", got)
	}
}

func TestWorkflowLowQualityGeneratorFailsJobs(t *testing.T) {
	f := newFixture(t, "http://generator-lowquality:9101", "http://publisher:9102")

	summary, err := f.service.RunWorkflow(context.Background())
	if err != nil {
		t.Fatalf("run workflow: %v", err)
	}
	if summary.Produced != 0 || summary.Failed != 4 {
		t.Fatalf("every job should exhaust the gate, got produced=%d failed=%d", summary.Produced, summary.Failed)
	}

	failed, err := f.stores.Jobs.ListByStatus(context.Background(), domain.JobStatusFailed)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, job := range failed {
		if job.Attempts != 3 {
			t.Fatalf("job %s used %d attempts, want 3", job.JobID, job.Attempts)
		}
		if job.FailureReason != "quality_gate_exhausted" {
			t.Fatalf("unexpected reason %q", job.FailureReason)
		}
	}
	if got := len(f.notifier.ByType(contracts.EventJobFailed)); got != 4 {
		t.Fatalf("expected 4 job-failed events, got %d", got)
	}
}

func TestWorkflowPublisherOutage(t *testing.T) {
	f := newFixture(t, "http://generator:9101", "http://publisher-fail:9102")

	summary, err := f.service.RunWorkflow(context.Background())
	if err != nil {
		t.Fatalf("publisher outage is item-level, run must finish: %v", err)
	}
	if summary.Published != 0 {
		t.Fatalf("nothing should publish during the outage, got %d", summary.Published)
	}
	if summary.Failed != 4 {
		t.Fatalf("all optimizing jobs should fail publish, got %d", summary.Failed)
	}

	failed, _ := f.stores.Jobs.ListByStatus(context.Background(), domain.JobStatusFailed)
	for _, job := range failed {
		if job.FailureReason != "publish_failed" {
			t.Fatalf("unexpected reason %q", job.FailureReason)
		}
	}
}

func TestWorkflowSecondRunSameDayPlansNothing(t *testing.T) {
	f := newFixture(t, "http://generator:9101", "http://publisher:9102")
	ctx := context.Background()

	if _, err := f.service.RunWorkflow(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := f.service.RunWorkflow(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Planned != 0 || second.Produced != 0 {
		t.Fatalf("same-day rerun must be a no-op for planning, got %+v", second)
	}
}
