package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/moviezone/linkgate/internal/config"
	"github.com/moviezone/linkgate/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	resolutionCachePrefix = "link:"
	viewCountPrefix       = "views:"
	resolutionCacheTTL    = 1 * time.Hour
)

type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(cfg *config.RedisConfig) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisRepository{client: client}, nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) Client() *redis.Client {
	return r.client
}

// GetResolution returns the cached resolution for a code, or nil on a
// cache miss. The cached payload never includes the per-client skip flag.
func (r *RedisRepository) GetResolution(ctx context.Context, code string) (*model.Resolution, error) {
	key := resolutionCachePrefix + code

	// GETEX refreshes the TTL on read (Redis 6.2+) so hot codes do not
	// churn out of the cache.
	data, err := r.client.GetEx(ctx, key, resolutionCacheTTL).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get resolution from cache: %w", err)
	}

	var res model.Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resolution: %w", err)
	}

	return &res, nil
}

func (r *RedisRepository) SetResolution(ctx context.Context, code string, res *model.Resolution) error {
	key := resolutionCachePrefix + code

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal resolution: %w", err)
	}

	if err := r.client.Set(ctx, key, data, resolutionCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set resolution in cache: %w", err)
	}

	return nil
}

// InvalidateResolution drops the cached entry after an edit or delete.
func (r *RedisRepository) InvalidateResolution(ctx context.Context, code string) error {
	key := resolutionCachePrefix + code

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate resolution: %w", err)
	}

	return nil
}

// IncrementView bumps the pending view counter for a (kind, code) pair.
// INCR is atomic, so concurrent resolves never lose a view; the sync
// scheduler later folds the counters into Postgres.
func (r *RedisRepository) IncrementView(ctx context.Context, kind model.LinkKind, code string) error {
	if err := r.client.Incr(ctx, viewCountKey(kind, code)).Err(); err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}

	return nil
}

func (r *RedisRepository) IncrementViewBy(ctx context.Context, kind model.LinkKind, code string, delta int64) error {
	if err := r.client.IncrBy(ctx, viewCountKey(kind, code), delta).Err(); err != nil {
		return fmt.Errorf("failed to increment view count by %d: %w", delta, err)
	}

	return nil
}

// GetAndResetViewCount atomically takes the pending count for a key so
// the sync cannot double-apply or drop views recorded mid-sync (GETDEL,
// Redis 6.2+).
func (r *RedisRepository) GetAndResetViewCount(ctx context.Context, kind model.LinkKind, code string) (int64, error) {
	count, err := r.client.GetDel(ctx, viewCountKey(kind, code)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get and reset view count: %w", err)
	}

	return count, nil
}

func (r *RedisRepository) GetAllViewCountKeys(ctx context.Context) ([]string, error) {
	pattern := viewCountPrefix + "*"

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan view count keys: %w", err)
	}

	return keys, nil
}

func viewCountKey(kind model.LinkKind, code string) string {
	return viewCountPrefix + string(kind) + ":" + code
}

// ParseViewCountKey recovers the (kind, code) pair from a counter key.
func ParseViewCountKey(key string) (model.LinkKind, string, bool) {
	rest, ok := strings.CutPrefix(key, viewCountPrefix)
	if !ok {
		return "", "", false
	}

	kindPart, code, ok := strings.Cut(rest, ":")
	if !ok {
		return "", "", false
	}

	kind := model.LinkKind(kindPart)
	if !kind.Valid() || code == "" {
		return "", "", false
	}

	return kind, code, true
}

func (r *RedisRepository) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
