package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/autopilot/internal/domain"
)

// RedisAnalysisCache holds computed analyses under analysis:{jobId} with the
// configured multi-hour TTL. Entries are written whole; a partial analysis is
// never stored.
type RedisAnalysisCache struct {
	client *redis.Client
}

func NewRedisAnalysisCache(client *redis.Client) *RedisAnalysisCache {
	return &RedisAnalysisCache{client: client}
}

func analysisKey(jobID string) string {
	return "analysis:" + jobID
}

func (c *RedisAnalysisCache) Get(ctx context.Context, jobID string) (domain.VideoAnalysis, error) {
	raw, err := c.client.Get(ctx, analysisKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.VideoAnalysis{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.VideoAnalysis{}, err
	}
	var analysis domain.VideoAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return domain.VideoAnalysis{}, err
	}
	return analysis, nil
}

func (c *RedisAnalysisCache) Put(ctx context.Context, analysis domain.VideoAnalysis, ttl time.Duration) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, analysisKey(analysis.JobID), payload, ttl).Err()
}

func (c *RedisAnalysisCache) Invalidate(ctx context.Context, jobID string) error {
	return c.client.Del(ctx, analysisKey(jobID)).Err()
}

// RedisStrategyStore holds per-channel strategies under strategy:{channelId}.
type RedisStrategyStore struct {
	client *redis.Client
}

func NewRedisStrategyStore(client *redis.Client) *RedisStrategyStore {
	return &RedisStrategyStore{client: client}
}

func (s *RedisStrategyStore) Get(ctx context.Context, channelID string) (domain.Strategy, error) {
	raw, err := s.client.Get(ctx, "strategy:"+channelID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Strategy{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Strategy{}, err
	}
	var strategy domain.Strategy
	if err := json.Unmarshal(raw, &strategy); err != nil {
		return domain.Strategy{}, err
	}
	return strategy, nil
}

func (s *RedisStrategyStore) Put(ctx context.Context, channelID string, strategy domain.Strategy) error {
	payload, err := json.Marshal(strategy)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "strategy:"+channelID, payload, 0).Err()
}

// RedisReportStore holds daily reports under dailyReport:{date} with a ~30d TTL.
type RedisReportStore struct {
	client *redis.Client
}

func NewRedisReportStore(client *redis.Client) *RedisReportStore {
	return &RedisReportStore{client: client}
}

func (s *RedisReportStore) Get(ctx context.Context, date string) (domain.DailyReport, error) {
	raw, err := s.client.Get(ctx, "dailyReport:"+date).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.DailyReport{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.DailyReport{}, err
	}
	var report domain.DailyReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.DailyReport{}, err
	}
	return report, nil
}

func (s *RedisReportStore) Put(ctx context.Context, report domain.DailyReport, ttl time.Duration) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "dailyReport:"+report.Date, payload, ttl).Err()
}

// RedisArtifactRegistry tracks temp artifact paths per job under a set key so
// a cleanup worker can reclaim storage once the job terminates.
type RedisArtifactRegistry struct {
	client *redis.Client
}

func NewRedisArtifactRegistry(client *redis.Client) *RedisArtifactRegistry {
	return &RedisArtifactRegistry{client: client}
}

func (r *RedisArtifactRegistry) Register(ctx context.Context, jobID string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	members := make([]interface{}, len(paths))
	for i, p := range paths {
		members[i] = p
	}
	return r.client.SAdd(ctx, "artifacts:"+jobID, members...).Err()
}

func (r *RedisArtifactRegistry) Cleanup(ctx context.Context, jobID string) error {
	return r.client.Del(ctx, "artifacts:"+jobID).Err()
}
