package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/autopilot/internal/domain"
)

// RedisJobStore persists jobs under job:{channel}:{id} with secondary index
// sets for per-day and per-status lookups. Records are owned by one workflow
// phase at a time, so plain read-modify-write is sufficient.
type RedisJobStore struct {
	client *redis.Client
}

func NewRedisJobStore(client *redis.Client) *RedisJobStore {
	return &RedisJobStore{client: client}
}

func jobKey(channelID, jobID string) string {
	return "job:" + channelID + ":" + jobID
}

func jobDayKey(channelID, date string) string {
	return "jobs:day:" + channelID + ":" + date
}

func jobStatusKey(status domain.JobStatus) string {
	return "jobs:status:" + string(status)
}

func (s *RedisJobStore) Save(ctx context.Context, job domain.ContentJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	prevStatus := domain.JobStatus("")
	if prev, err := s.GetByID(ctx, job.JobID); err == nil {
		prevStatus = prev.Status
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, jobKey(job.ChannelID, job.JobID), payload, 0)
		p.HSet(ctx, "jobs:channels", job.JobID, job.ChannelID)
		p.SAdd(ctx, jobDayKey(job.ChannelID, job.ScheduledFor), job.JobID)
		if prevStatus != "" && prevStatus != job.Status {
			p.SRem(ctx, jobStatusKey(prevStatus), job.JobID)
		}
		p.SAdd(ctx, jobStatusKey(job.Status), job.JobID)
		return nil
	})
	return err
}

func (s *RedisJobStore) GetByID(ctx context.Context, jobID string) (domain.ContentJob, error) {
	channelID, err := s.client.HGet(ctx, "jobs:channels", jobID).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ContentJob{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ContentJob{}, err
	}
	raw, err := s.client.Get(ctx, jobKey(channelID, jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ContentJob{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ContentJob{}, err
	}
	var job domain.ContentJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return domain.ContentJob{}, err
	}
	return job, nil
}

func (s *RedisJobStore) ListByChannelAndDate(ctx context.Context, channelID, date string) ([]domain.ContentJob, error) {
	ids, err := s.client.SMembers(ctx, jobDayKey(channelID, date)).Result()
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, ids)
}

func (s *RedisJobStore) ListByStatus(ctx context.Context, status domain.JobStatus) ([]domain.ContentJob, error) {
	ids, err := s.client.SMembers(ctx, jobStatusKey(status)).Result()
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, ids)
}

func (s *RedisJobStore) collect(ctx context.Context, ids []string) ([]domain.ContentJob, error) {
	var out []domain.ContentJob
	for _, id := range ids {
		job, err := s.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			// Index member outlived its archived record; drop it lazily.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

// Archive stamps a terminal job's record with the retention TTL and removes
// it from the hot status index.
func (s *RedisJobStore) Archive(ctx context.Context, jobID string, ttl time.Duration) error {
	job, err := s.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Expire(ctx, jobKey(job.ChannelID, job.JobID), ttl)
		p.SRem(ctx, jobStatusKey(job.Status), job.JobID)
		return nil
	})
	return err
}
