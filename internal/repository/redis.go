package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// statsKeyFormat keys one provider snapshot: stats:<provider>:<username>
	statsKeyFormat = "stats:%s:%s"

	// leaderboardKeyFormat is the per-room sorted set of rounded scores
	leaderboardKeyFormat = "room:%s:leaderboard"

	// versionKeyFormat tracks per-room leaderboard versions for cheap
	// change detection by pollers
	versionKeyFormat = "room:%s:version"
)

// RedisRepository handles all Redis operations: the provider snapshot
// cache that shields the mirror APIs from repeated lookups, and the
// per-room leaderboard cache.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis repository
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client: client,
	}
}

// GetGitHubStats returns a cached commit-activity snapshot, or nil on miss
func (r *RedisRepository) GetGitHubStats(ctx context.Context, username string) (*models.GitHubStats, error) {
	var stats models.GitHubStats
	ok, err := r.getJSON(ctx, fmt.Sprintf(statsKeyFormat, models.ProviderGitHub, username), &stats)
	if err != nil || !ok {
		return nil, err
	}
	return &stats, nil
}

// SetGitHubStats caches a commit-activity snapshot with a TTL
func (r *RedisRepository) SetGitHubStats(ctx context.Context, username string, stats *models.GitHubStats, ttl time.Duration) error {
	return r.setJSON(ctx, fmt.Sprintf(statsKeyFormat, models.ProviderGitHub, username), stats, ttl)
}

// GetLeetCodeStats returns a cached problem-solving snapshot, or nil on miss
func (r *RedisRepository) GetLeetCodeStats(ctx context.Context, username string) (*models.LeetCodeStats, error) {
	var stats models.LeetCodeStats
	ok, err := r.getJSON(ctx, fmt.Sprintf(statsKeyFormat, models.ProviderLeetCode, username), &stats)
	if err != nil || !ok {
		return nil, err
	}
	return &stats, nil
}

// SetLeetCodeStats caches a problem-solving snapshot with a TTL
func (r *RedisRepository) SetLeetCodeStats(ctx context.Context, username string, stats *models.LeetCodeStats, ttl time.Duration) error {
	return r.setJSON(ctx, fmt.Sprintf(statsKeyFormat, models.ProviderLeetCode, username), stats, ttl)
}

// StoreLeaderboard replaces a room's cached leaderboard atomically via
// pipeline and bumps the room version counter
func (r *RedisRepository) StoreLeaderboard(ctx context.Context, roomID string, entries []models.LeaderboardEntry) error {
	key := fmt.Sprintf(leaderboardKeyFormat, roomID)

	pipe := r.client.Pipeline()
	pipe.Del(ctx, key)
	for _, entry := range entries {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(entry.TotalScore),
			Member: entry.UserID,
		})
	}
	pipe.Incr(ctx, fmt.Sprintf(versionKeyFormat, roomID))

	_, err := pipe.Exec(ctx)
	return err
}

// GetLeaderboardVersion returns the room's current version number
func (r *RedisRepository) GetLeaderboardVersion(ctx context.Context, roomID string) (int64, error) {
	version, err := r.client.Get(ctx, fmt.Sprintf(versionKeyFormat, roomID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil // Version not set yet, return 0
		}
		return 0, err
	}
	return version, nil
}

// Ping checks if Redis is reachable
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("invalid cached payload for %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisRepository) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, payload, ttl).Err()
}
