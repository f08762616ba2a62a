package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/viralforge/autopilot/internal/contracts"
	"github.com/viralforge/autopilot/internal/domain"
)

// Workflow phases, strictly sequential within one run. No phase is re-entered.
const (
	phasePlanning     = "planning"
	phaseProduction   = "production"
	phaseOptimization = "optimization"
	phasePublishing   = "publishing"
	phaseAnalysis     = "analysis"
	phaseLearning     = "learning"
)

// RunWorkflow executes one full orchestration pass: Planning -> Production ->
// Optimization -> Publishing -> Analysis -> Learning. Only one run may be
// active at a time; a concurrent invocation gets domain.ErrWorkflowRunning,
// which is an expected coordination outcome, not a failure.
//
// Item-level failures are absorbed per phase. An error escaping a phase
// boundary aborts the remaining phases, triggers the recovery notification,
// and leaves already-committed job and channel state intact.
func (s *Service) RunWorkflow(ctx context.Context) (RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return RunSummary{}, domain.ErrWorkflowRunning
	}
	defer s.running.Store(false)

	summary := RunSummary{RunID: uuid.NewString(), StartedAt: s.nowFn()}
	s.logger.InfoContext(ctx, "workflow run started", "run_id", summary.RunID)

	s.runPlanning(ctx, &summary)

	// Analysis hands its analyzed jobs to Learning directly: the job store's
	// status index no longer carries them once they are archived.
	var analyzedJobs []domain.ContentJob

	phases := []struct {
		name string
		fn   func(context.Context, *RunSummary) error
	}{
		{phaseProduction, s.runProduction},
		{phaseOptimization, s.runOptimization},
		{phasePublishing, s.runPublishing},
		{phaseAnalysis, func(ctx context.Context, sum *RunSummary) error {
			jobs, err := s.runAnalysis(ctx, sum)
			analyzedJobs = jobs
			return err
		}},
		{phaseLearning, func(ctx context.Context, _ *RunSummary) error {
			return s.runLearning(ctx, analyzedJobs)
		}},
	}
	for _, phase := range phases {
		if err := phase.fn(ctx, &summary); err != nil {
			s.logger.ErrorContext(ctx, "workflow phase failed, aborting run",
				"run_id", summary.RunID, "phase", phase.name, "error", err)
			summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", phase.name, err))
			s.notify(ctx, contracts.EventWorkflowFailed, summary.RunID, contracts.WorkflowFailedData{
				Phase:  phase.name,
				Reason: err.Error(),
			})
			summary.FinishedAt = s.nowFn()
			s.writeDailyReport(ctx, summary)
			return summary, fmt.Errorf("phase %s: %w", phase.name, err)
		}
	}

	summary.FinishedAt = s.nowFn()
	s.writeDailyReport(ctx, summary)
	s.logger.InfoContext(ctx, "workflow run finished",
		"run_id", summary.RunID,
		"planned", summary.Planned,
		"produced", summary.Produced,
		"failed", summary.Failed,
		"published", summary.Published,
		"analyzed", summary.Analyzed)
	return summary, nil
}

// Running reports whether a workflow run is currently active.
func (s *Service) Running() bool {
	return s.running.Load()
}

// runPlanning schedules due seeds for every channel. A failing channel is
// logged and skipped; the phase itself cannot fail the run.
func (s *Service) runPlanning(ctx context.Context, summary *RunSummary) {
	now := s.nowFn()
	var planned []domain.ContentJob
	for i := range s.channels {
		ch := s.channels[i]
		if strategy, err := s.strategies.Get(ctx, ch.ChannelID); err == nil {
			ch.Strategy = strategy
			s.channels[i].Strategy = strategy
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "strategy unavailable, planning with defaults",
				"channel_id", ch.ChannelID, "error", err)
		}
		seeds, err := s.PlanChannel(ctx, ch, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "channel planning failed",
				"channel_id", ch.ChannelID, "error", err)
			summary.Failures = append(summary.Failures, fmt.Sprintf("planning %s: %v", ch.ChannelID, err))
			continue
		}
		planned = append(planned, seeds...)
	}
	summary.Planned = len(planned)
}

// runProduction lists planned jobs from the store rather than consuming this
// run's seed slice, so seeds persisted by an earlier aborted run (which the
// same-day planning idempotence would otherwise strand) are produced too.
func (s *Service) runProduction(ctx context.Context, summary *RunSummary) error {
	planned, err := s.jobs.ListByStatus(ctx, domain.JobStatusPlanned)
	if err != nil {
		return err
	}
	s.orderJobs(planned)
	produced, failed := s.ProduceBatch(ctx, planned)
	summary.Produced = len(produced)
	summary.Failed += len(failed)
	return nil
}

// runOptimization opens A/B tests for produced jobs and runs the compliance
// review gating publication.
func (s *Service) runOptimization(ctx context.Context, summary *RunSummary) error {
	produced, err := s.jobs.ListByStatus(ctx, domain.JobStatusProduced)
	if err != nil {
		return err
	}
	for _, job := range produced {
		opened, err := s.optimizeJob(ctx, job)
		if err != nil {
			s.logger.WarnContext(ctx, "optimization failed for job",
				"job_id", job.JobID, "error", err)
			summary.Failed++
			continue
		}
		summary.TestsOpen += opened
	}
	return nil
}

// optimizeJob returns how many tests it actually opened; a tolerated conflict
// with an already-running test does not count.
func (s *Service) optimizeJob(ctx context.Context, job domain.ContentJob) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
	err := s.compliance.Review(callCtx, job)
	cancel()
	if err != nil {
		s.failJob(ctx, job, "compliance_rejected")
		return 0, fmt.Errorf("%w: %v", domain.ErrCompliance, err)
	}

	if err := job.TransitionTo(domain.JobStatusOptimizing, s.nowFn()); err != nil {
		return 0, err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return 0, err
	}

	opened := 0
	if _, err := s.CreateTest(ctx, job.JobID, domain.TestKindThumbnail, thumbnailVariants(job)); err == nil {
		opened++
	} else if !errors.Is(err, domain.ErrConflict) {
		return opened, err
	}
	if _, err := s.CreateTest(ctx, job.JobID, domain.TestKindTitle, titleVariants(job)); err == nil {
		opened++
	} else if !errors.Is(err, domain.ErrConflict) {
		return opened, err
	}
	return opened, nil
}

// runPublishing uploads every optimizing job through the publishing
// collaborator, guarded by the per-key rate budget.
func (s *Service) runPublishing(ctx context.Context, summary *RunSummary) error {
	ready, err := s.jobs.ListByStatus(ctx, domain.JobStatusOptimizing)
	if err != nil {
		return err
	}
	for _, job := range ready {
		if err := s.publishJob(ctx, job); err != nil {
			s.logger.WarnContext(ctx, "publishing failed for job", "job_id", job.JobID, "error", err)
			summary.Failed++
			continue
		}
		summary.Published++
	}
	return nil
}

func (s *Service) publishJob(ctx context.Context, job domain.ContentJob) error {
	if err := s.acquire(ctx, limitKeyPublishing, 1); err != nil {
		s.failJob(ctx, job, "publish_quota")
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
	url, err := s.publisher.Publish(callCtx, job)
	cancel()
	if err != nil {
		s.failJob(ctx, job, "publish_failed")
		return err
	}

	job.ExternalURL = url
	if err := job.TransitionTo(domain.JobStatusPublished, s.nowFn()); err != nil {
		return err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return err
	}
	if err := s.artifacts.Cleanup(ctx, job.JobID); err != nil {
		s.logger.WarnContext(ctx, "cleanup temp artifacts", "job_id", job.JobID, "error", err)
	}
	s.notify(ctx, contracts.EventContentPublished, job.ChannelID, contracts.ContentPublishedData{
		JobID:       job.JobID,
		ChannelID:   job.ChannelID,
		Kind:        string(job.Kind),
		Title:       job.Title,
		ExternalURL: url,
	})
	return nil
}

// runAnalysis analyzes published jobs, folds fresh counters into active
// tests, raises threshold-breach alerts, and archives analyzed jobs. It
// returns the jobs it analyzed this run for the Learning phase; archival can
// remove them from the store's status index.
func (s *Service) runAnalysis(ctx context.Context, summary *RunSummary) ([]domain.ContentJob, error) {
	published, err := s.jobs.ListByStatus(ctx, domain.JobStatusPublished)
	if err != nil {
		return nil, err
	}
	var analyzedJobs []domain.ContentJob
	channelByID := make(map[string]domain.Channel, len(s.channels))
	for _, ch := range s.channels {
		channelByID[ch.ChannelID] = ch
	}

	for _, job := range published {
		analysis, snapshot, err := s.AnalyzeJob(ctx, job)
		if err != nil {
			s.logger.WarnContext(ctx, "analysis failed for job", "job_id", job.JobID, "error", err)
			summary.Failures = append(summary.Failures, fmt.Sprintf("analysis %s: %v", job.JobID, err))
			continue
		}

		if len(snapshot.VariantStats) > 0 {
			closed, err := s.refreshTests(ctx, job.JobID, snapshot.VariantStats)
			if err != nil {
				s.logger.WarnContext(ctx, "test refresh failed", "job_id", job.JobID, "error", err)
			}
			summary.TestsDone += closed
		}

		if ch, ok := channelByID[job.ChannelID]; ok {
			for _, breach := range thresholdAlerts(ch, analysis.Metrics) {
				alert := fmt.Sprintf("%s: %s %.3f below target %.3f", job.JobID, breach.Metric, breach.Observed, breach.Target)
				summary.Alerts = append(summary.Alerts, alert)
				s.notify(ctx, contracts.EventThresholdBreach, job.ChannelID, contracts.ThresholdBreachData{
					JobID:     job.JobID,
					ChannelID: job.ChannelID,
					Metric:    breach.Metric,
					Observed:  breach.Observed,
					Target:    breach.Target,
				})
			}
		}

		if err := job.TransitionTo(domain.JobStatusAnalyzed, s.nowFn()); err != nil {
			s.logger.WarnContext(ctx, "job not analyzable", "job_id", job.JobID, "error", err)
			continue
		}
		if err := s.jobs.Save(ctx, job); err != nil {
			return analyzedJobs, err
		}
		if err := s.jobs.Archive(ctx, job.JobID, s.cfg.ArchiveTTL); err != nil {
			s.logger.WarnContext(ctx, "archive analyzed job", "job_id", job.JobID, "error", err)
		}
		analyzedJobs = append(analyzedJobs, job)
		summary.Analyzed++
	}

	// Age out running tests that saw no counter traffic this run; without
	// this sweep a quiet test would stay running past its maximum age.
	running, err := s.tests.ListRunning(ctx)
	if err != nil {
		return analyzedJobs, err
	}
	for _, test := range running {
		s.maybeResolve(ctx, &test)
		if test.Status != domain.TestStatusCompleted {
			continue
		}
		if err := s.tests.Save(ctx, test); err != nil {
			return analyzedJobs, err
		}
		summary.TestsDone++
	}
	return analyzedJobs, nil
}

// runLearning is the only phase allowed to mutate channel strategy. It folds
// this run's analyses into the per-channel strategy consumed by the next
// Planning pass. It works from the analyzed jobs handed over by runAnalysis,
// not the store's status index, which also keeps prior runs' jobs out of the
// aggregate.
func (s *Service) runLearning(ctx context.Context, analyzed []domain.ContentJob) error {
	type channelStats struct {
		totalScore float64
		count      int
		kindScore  map[domain.ContentKind]float64
		kindCount  map[domain.ContentKind]int
	}
	perChannel := map[string]*channelStats{}

	for _, job := range analyzed {
		analysis, err := s.analyses.Get(ctx, job.JobID)
		if err != nil {
			continue
		}
		stats := perChannel[job.ChannelID]
		if stats == nil {
			stats = &channelStats{
				kindScore: map[domain.ContentKind]float64{},
				kindCount: map[domain.ContentKind]int{},
			}
			perChannel[job.ChannelID] = stats
		}
		stats.totalScore += analysis.OptimizationScore
		stats.count++
		stats.kindScore[job.Kind] += analysis.OptimizationScore
		stats.kindCount[job.Kind]++
	}

	now := s.nowFn()
	for i := range s.channels {
		ch := &s.channels[i]
		stats := perChannel[ch.ChannelID]
		if stats == nil || stats.count == 0 {
			continue
		}
		avg := stats.totalScore / float64(stats.count)

		strategy := ch.Strategy
		strategy.AvgScore = avg
		strategy.RunsObserved++
		strategy.PriorityBoost = clamp((avg-70)/100, -0.2, 0.3)
		strategy.PreferredKind = preferredKind(stats.kindScore, stats.kindCount)
		strategy.LastUpdated = now
		strategy.Notes = appendBounded(strategy.Notes,
			fmt.Sprintf("%s avg score %.1f over %d item(s)", now.Format(dateLayout), avg, stats.count), 20)

		if err := s.strategies.Put(ctx, ch.ChannelID, strategy); err != nil {
			s.logger.ErrorContext(ctx, "persist strategy", "channel_id", ch.ChannelID, "error", err)
			continue
		}
		ch.Strategy = strategy
	}
	return nil
}

// writeDailyReport folds this run's summary into the date's report record.
func (s *Service) writeDailyReport(ctx context.Context, summary RunSummary) {
	date := summary.StartedAt.Format(dateLayout)
	report, err := s.reports.Get(ctx, date)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "daily report unavailable", "date", date, "error", err)
		}
		report = domain.DailyReport{Date: date}
	}
	report.RunsStarted++
	report.Planned += summary.Planned
	report.Produced += summary.Produced
	report.Failed += summary.Failed
	report.Published += summary.Published
	report.Analyzed += summary.Analyzed
	report.TestsOpened += summary.TestsOpen
	report.TestsClosed += summary.TestsDone
	report.Alerts = append(report.Alerts, summary.Alerts...)
	report.Failures = append(report.Failures, summary.Failures...)
	report.GeneratedAt = s.nowFn()
	if err := s.reports.Put(ctx, report, s.cfg.ReportTTL); err != nil {
		s.logger.ErrorContext(ctx, "persist daily report", "date", date, "error", err)
		return
	}
	s.notify(ctx, contracts.EventDailyReport, date, contracts.DailyReportData{
		Date:      date,
		Planned:   report.Planned,
		Produced:  report.Produced,
		Failed:    report.Failed,
		Published: report.Published,
		Analyzed:  report.Analyzed,
	})
}

// GetDailyReport returns the aggregated report for a date.
func (s *Service) GetDailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	return s.reports.Get(ctx, date)
}

// GetJob returns one job by id.
func (s *Service) GetJob(ctx context.Context, jobID string) (domain.ContentJob, error) {
	return s.jobs.GetByID(ctx, jobID)
}

func thumbnailVariants(job domain.ContentJob) []string {
	base := job.Artifact.MediaPath
	if len(job.Artifact.ThumbnailPaths) > 0 {
		base = job.Artifact.ThumbnailPaths[0]
	}
	return []string{base, base + "#alt-contrast", base + "#alt-closeup"}
}

func titleVariants(job domain.ContentJob) []string {
	return []string{job.Title, job.Title + " (you need to see this)"}
}

func preferredKind(scores map[domain.ContentKind]float64, counts map[domain.ContentKind]int) domain.ContentKind {
	best := domain.ContentKind("")
	bestAvg := -1.0
	for _, kind := range []domain.ContentKind{domain.KindLongForm, domain.KindShortForm} {
		if counts[kind] == 0 {
			continue
		}
		avg := scores[kind] / float64(counts[kind])
		if avg > bestAvg {
			best = kind
			bestAvg = avg
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func appendBounded(notes []string, note string, max int) []string {
	notes = append(notes, note)
	if len(notes) > max {
		notes = notes[len(notes)-max:]
	}
	return notes
}
