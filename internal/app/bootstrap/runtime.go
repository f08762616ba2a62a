package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/viralforge/autopilot/internal/adapters/cache"
	"github.com/viralforge/autopilot/internal/adapters/events"
	httpadapter "github.com/viralforge/autopilot/internal/adapters/http"
	"github.com/viralforge/autopilot/internal/adapters/memory"
	"github.com/viralforge/autopilot/internal/adapters/studio"
	"github.com/viralforge/autopilot/internal/application"
	"github.com/viralforge/autopilot/internal/domain"
)

// Runtime wires configuration, adapters, and the application service for
// both the API and worker entrypoints.
type Runtime struct {
	Config  Config
	Logger  *slog.Logger
	Service *application.Service

	closers []func() error
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceID)

	rt := &Runtime{Config: cfg, Logger: logger}

	deps := application.Dependencies{
		Config: application.Config{
			ServiceName:              cfg.ServiceID,
			QualityThreshold:         cfg.QualityGate,
			MaxProductionAttempts:    cfg.MaxAttempts,
			MaxConcurrentGenerations: cfg.MaxParallel,
			ConfidenceThreshold:      cfg.Confidence,
			TestMaxAge:               cfg.TestMaxAge,
			AnalysisTTL:              cfg.AnalysisTTL,
			ArchiveTTL:               cfg.ArchiveTTL,
			ReportTTL:                cfg.ReportTTL,
			CollaboratorTimeout:      cfg.CallTimeout,
			RateLimitRetries:         cfg.LimitRetries,
			RateLimitBackoff:         cfg.LimitBackoff,
		},
		Logger:     logger,
		Generator:  studio.NewGeneratorClient(cfg.GeneratorEndpoint),
		Publisher:  studio.NewPublisherClient(cfg.PublisherEndpoint),
		Analytics:  studio.NewAnalyticsClient(cfg.AnalyticsEndpoint),
		Compliance: studio.NewComplianceClient(cfg.ComplianceEndpoint),
		Trends:     studio.NewTrendClient(cfg.TrendsEndpoint),
		Channels:   cfg.Channels,
	}

	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rt.closers = append(rt.closers, client.Close)
		deps.Jobs = cache.NewRedisJobStore(client)
		deps.Tests = cache.NewRedisTestStore(client)
		deps.Analyses = cache.NewRedisAnalysisCache(client)
		deps.Strategies = cache.NewRedisStrategyStore(client)
		deps.Reports = cache.NewRedisReportStore(client)
		deps.Artifacts = cache.NewRedisArtifactRegistry(client)
		deps.Limiter = cache.NewRedisRateLimiter(client, cfg.LimitBudget, cfg.LimitWindow)
		logger.Info("redis stores attached")
	} else {
		stores := memory.NewStores()
		deps.Jobs = stores.Jobs
		deps.Tests = stores.Tests
		deps.Analyses = stores.Analyses
		deps.Strategies = stores.Strategies
		deps.Reports = stores.Reports
		deps.Artifacts = stores.Artifacts
		deps.Limiter = memory.NewRateLimiter(cfg.LimitBudget, cfg.LimitWindow)
		logger.Warn("redis url not configured, using in-memory stores")
	}

	if len(cfg.KafkaBrokers) > 0 {
		notifier, err := events.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("kafka notifier: %w", err)
		}
		rt.closers = append(rt.closers, notifier.Close)
		deps.Notifier = notifier
	} else {
		deps.Notifier = events.NewLoggingNotifier(logger)
	}

	rt.Service = application.NewService(deps)
	return rt, nil
}

// RunAPI serves the ops HTTP surface until the context is cancelled or a
// termination signal arrives.
func (rt *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := httpadapter.NewHandler(rt.Service)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", rt.Config.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.Logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		rt.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	rt.close()
	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// RunWorker schedules the daily workflow on the configured cron expression.
func (rt *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() {
		summary, err := rt.Service.RunWorkflow(ctx)
		if err != nil {
			if err == context.Canceled {
				return
			}
			rt.Logger.Error("workflow run failed", "error", err)
			return
		}
		rt.Logger.Info("workflow run finished",
			"run_id", summary.RunID,
			"planned", summary.Planned,
			"produced", summary.Produced,
			"published", summary.Published,
			"analyzed", summary.Analyzed,
			"failed", summary.Failed,
		)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(rt.Config.CronSpec, run); err != nil {
		return fmt.Errorf("schedule workflow %q: %w", rt.Config.CronSpec, err)
	}

	if rt.Config.RunOnStart {
		run()
	}

	rt.Logger.Info("worker scheduled", "cron", rt.Config.CronSpec)
	scheduler.Start()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		rt.Logger.Warn("worker stop timed out with a run still in flight")
	}
	rt.close()
	return nil
}

func (rt *Runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.Logger.Error("close dependency", "error", err)
		}
	}
}

// DefaultChannels returns a single starter channel so local runs work
// without editing the config file.
func DefaultChannels() []domain.Channel {
	return []domain.Channel{
		{
			ChannelID:    "ch-demo",
			Name:         "Demo Channel",
			Niche:        "technology",
			AudienceTier: domain.TierEmerging,
			Voice:        "casual",
			Cadence: domain.CadenceRules{
				LongFormDays: []time.Weekday{time.Monday, time.Thursday},
				ShortsPerDay: 2,
				ShortsMinGap: 4 * time.Hour,
			},
			TargetRPM: 2.5,
			Targets: domain.OptimizationTargets{
				MinRetention: 0.40,
				MinCTR:       0.04,
				MinLikeRatio: 0.03,
			},
		},
	}
}
