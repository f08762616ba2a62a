package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/autopilot/internal/domain"
)

// RedisTestStore persists A/B tests under abtest:{id} with a running-set
// index and a per-(job, kind) pointer enforcing the single-active-test rule.
type RedisTestStore struct {
	client *redis.Client
}

func NewRedisTestStore(client *redis.Client) *RedisTestStore {
	return &RedisTestStore{client: client}
}

func testKey(testID string) string {
	return "abtest:" + testID
}

func runningPairKey(jobID string, kind domain.TestKind) string {
	return "abtests:running:" + jobID + ":" + string(kind)
}

func (s *RedisTestStore) Save(ctx context.Context, test domain.ABTest) error {
	payload, err := json.Marshal(test)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, testKey(test.TestID), payload, 0)
		if test.Status == domain.TestStatusRunning {
			p.SAdd(ctx, "abtests:running", test.TestID)
			p.Set(ctx, runningPairKey(test.JobID, test.Kind), test.TestID, 0)
		} else {
			p.SRem(ctx, "abtests:running", test.TestID)
			p.Del(ctx, runningPairKey(test.JobID, test.Kind))
		}
		return nil
	})
	return err
}

func (s *RedisTestStore) GetByID(ctx context.Context, testID string) (domain.ABTest, error) {
	raw, err := s.client.Get(ctx, testKey(testID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ABTest{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ABTest{}, err
	}
	var test domain.ABTest
	if err := json.Unmarshal(raw, &test); err != nil {
		return domain.ABTest{}, err
	}
	return test, nil
}

func (s *RedisTestStore) ListRunning(ctx context.Context) ([]domain.ABTest, error) {
	ids, err := s.client.SMembers(ctx, "abtests:running").Result()
	if err != nil {
		return nil, err
	}
	var out []domain.ABTest
	for _, id := range ids {
		test, err := s.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, test)
	}
	return out, nil
}

func (s *RedisTestStore) FindRunning(ctx context.Context, jobID string, kind domain.TestKind) (domain.ABTest, error) {
	testID, err := s.client.Get(ctx, runningPairKey(jobID, kind)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ABTest{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ABTest{}, err
	}
	return s.GetByID(ctx, testID)
}
