package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hn-frontpage/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisStore caches the last successful batch for one fixed search query.
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
	now func() time.Time
}

// NewRedisStore creates a cache for the batch identified by tags and hitsPerPage.
// A non-positive ttl stores entries without expiry.
func NewRedisStore(rdb *redis.Client, tags string, hitsPerPage int, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: storiesKey(tags, hitsPerPage), ttl: ttl, now: time.Now}
}

func storiesKey(tags string, hitsPerPage int) string {
	return fmt.Sprintf("hn:stories:%s:%d", tags, hitsPerPage)
}

// Key returns the redis key the batch is stored under.
func (s *RedisStore) Key() string { return s.key }

// cachedBatch is the stored form; SavedAt becomes the batch's FetchedAt on load.
type cachedBatch struct {
	SavedAt time.Time     `json:"saved_at"`
	Stories []model.Story `json:"stories"`
}

// SaveStories stores the batch, replacing any previous one.
func (s *RedisStore) SaveStories(ctx context.Context, stories []model.Story) error {
	if stories == nil {
		stories = []model.Story{}
	}
	b, err := json.Marshal(cachedBatch{SavedAt: s.now().UTC(), Stories: stories})
	if err != nil {
		return err
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, s.key, b, ttl).Err()
}

// LoadStories returns the cached batch and when it was saved. A miss reports
// false with a nil error.
func (s *RedisStore) LoadStories(ctx context.Context) ([]model.Story, time.Time, bool, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	var cb cachedBatch
	if err := json.Unmarshal(b, &cb); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("storage: decode %s: %w", s.key, err)
	}
	if cb.Stories == nil {
		cb.Stories = []model.Story{}
	}
	return cb.Stories, cb.SavedAt, true, nil
}

// Clear drops the cached batch.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
