// Package memory provides in-process implementations of the persistence
// ports. The worker runtime falls back to these when no Redis URL is
// configured, and tests run entirely against them.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/viralforge/autopilot/internal/domain"
)

type Stores struct {
	Jobs       *JobStore
	Tests      *TestStore
	Analyses   *AnalysisCache
	Strategies *StrategyStore
	Reports    *ReportStore
	Artifacts  *ArtifactRegistry
}

func NewStores() *Stores {
	return &Stores{
		Jobs:       &JobStore{records: map[string]domain.ContentJob{}},
		Tests:      &TestStore{records: map[string]domain.ABTest{}},
		Analyses:   &AnalysisCache{records: map[string]analysisEntry{}},
		Strategies: &StrategyStore{records: map[string]domain.Strategy{}},
		Reports:    &ReportStore{records: map[string]domain.DailyReport{}},
		Artifacts:  &ArtifactRegistry{records: map[string][]string{}},
	}
}

type JobStore struct {
	mu      sync.RWMutex
	records map[string]domain.ContentJob
}

func (s *JobStore) Save(_ context.Context, job domain.ContentJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[job.JobID] = job
	return nil
}

func (s *JobStore) GetByID(_ context.Context, jobID string) (domain.ContentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.records[jobID]
	if !ok {
		return domain.ContentJob{}, domain.ErrNotFound
	}
	return job, nil
}

func (s *JobStore) ListByChannelAndDate(_ context.Context, channelID, date string) ([]domain.ContentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ContentJob
	for _, job := range s.records {
		if job.ChannelID == channelID && job.ScheduledFor == date {
			out = append(out, job)
		}
	}
	return out, nil
}

func (s *JobStore) ListByStatus(_ context.Context, status domain.JobStatus) ([]domain.ContentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ContentJob
	for _, job := range s.records {
		if job.Status == status {
			out = append(out, job)
		}
	}
	return out, nil
}

func (s *JobStore) Archive(_ context.Context, jobID string, _ time.Duration) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.records[jobID]; !ok {
		return domain.ErrNotFound
	}
	// Memory records have no TTL; archival is a no-op beyond existence.
	return nil
}

type TestStore struct {
	mu      sync.RWMutex
	records map[string]domain.ABTest
}

func (s *TestStore) Save(_ context.Context, test domain.ABTest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[test.TestID] = test
	return nil
}

func (s *TestStore) GetByID(_ context.Context, testID string) (domain.ABTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	test, ok := s.records[testID]
	if !ok {
		return domain.ABTest{}, domain.ErrNotFound
	}
	return test, nil
}

func (s *TestStore) ListRunning(_ context.Context) ([]domain.ABTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ABTest
	for _, test := range s.records {
		if test.Status == domain.TestStatusRunning {
			out = append(out, test)
		}
	}
	return out, nil
}

func (s *TestStore) FindRunning(_ context.Context, jobID string, kind domain.TestKind) (domain.ABTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, test := range s.records {
		if test.JobID == jobID && test.Kind == kind && test.Status == domain.TestStatusRunning {
			return test, nil
		}
	}
	return domain.ABTest{}, domain.ErrNotFound
}

type analysisEntry struct {
	analysis  domain.VideoAnalysis
	expiresAt time.Time
}

type AnalysisCache struct {
	mu      sync.RWMutex
	records map[string]analysisEntry
	nowFn   func() time.Time
}

func (c *AnalysisCache) now() time.Time {
	if c.nowFn != nil {
		return c.nowFn()
	}
	return time.Now().UTC()
}

func (c *AnalysisCache) Get(_ context.Context, jobID string) (domain.VideoAnalysis, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.records[jobID]
	if !ok || c.now().After(entry.expiresAt) {
		return domain.VideoAnalysis{}, domain.ErrNotFound
	}
	return entry.analysis, nil
}

func (c *AnalysisCache) Put(_ context.Context, analysis domain.VideoAnalysis, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[analysis.JobID] = analysisEntry{analysis: analysis, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *AnalysisCache) Invalidate(_ context.Context, jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, jobID)
	return nil
}

type StrategyStore struct {
	mu      sync.RWMutex
	records map[string]domain.Strategy
}

func (s *StrategyStore) Get(_ context.Context, channelID string) (domain.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	strategy, ok := s.records[channelID]
	if !ok {
		return domain.Strategy{}, domain.ErrNotFound
	}
	return strategy, nil
}

func (s *StrategyStore) Put(_ context.Context, channelID string, strategy domain.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[channelID] = strategy
	return nil
}

type ReportStore struct {
	mu      sync.RWMutex
	records map[string]domain.DailyReport
}

func (s *ReportStore) Get(_ context.Context, date string) (domain.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.records[date]
	if !ok {
		return domain.DailyReport{}, domain.ErrNotFound
	}
	return report, nil
}

func (s *ReportStore) Put(_ context.Context, report domain.DailyReport, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[report.Date] = report
	return nil
}

type ArtifactRegistry struct {
	mu      sync.Mutex
	records map[string][]string
	cleaned []string
}

func (r *ArtifactRegistry) Register(_ context.Context, jobID string, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[jobID] = append(r.records[jobID], paths...)
	return nil
}

func (r *ArtifactRegistry) Cleanup(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, jobID)
	r.cleaned = append(r.cleaned, jobID)
	return nil
}

// Cleaned lists job ids whose temp artifacts were released. Test hook.
func (r *ArtifactRegistry) Cleaned() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.cleaned)
}

// Pending lists job ids that still hold registered temp artifacts. Test hook.
func (r *ArtifactRegistry) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.records))
	for jobID := range r.records {
		out = append(out, jobID)
	}
	return out
}
