package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/nmang004/atlas-sub000/internal/database"
)

const (
	DefaultVoteRateLimit  = 10
	DefaultVoteRateWindow = time.Minute

	voteRateKeyPrefix = "vote_rate:"
)

var errRateLimiterUnavailable = errors.New("rate limiter unavailable")

// RateLimiter decides whether a user may cast another vote now. Reserve
// returns a slot id that Release gives back when the vote is not recorded.
type RateLimiter interface {
	Reserve(ctx context.Context, userID uint) (slot string, allowed bool, err error)
	Release(ctx context.Context, userID uint, slot string) error
}

// voteRateScript is the sliding-window check-and-record. Running it as one
// script keeps concurrent requests from the same user from both slipping
// under the limit.
var voteRateScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
	return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisVoteRateLimiter allows Limit votes per user in any trailing Window.
type RedisVoteRateLimiter struct {
	Limit  int
	Window time.Duration
}

func NewRedisVoteRateLimiter(limit int, window time.Duration) *RedisVoteRateLimiter {
	if limit <= 0 {
		limit = DefaultVoteRateLimit
	}
	if window <= 0 {
		window = DefaultVoteRateWindow
	}
	return &RedisVoteRateLimiter{Limit: limit, Window: window}
}

func (l *RedisVoteRateLimiter) Reserve(ctx context.Context, userID uint) (string, bool, error) {
	client := database.RedisClient
	if client == nil {
		return "", false, errRateLimiterUnavailable
	}

	slot := uuid.NewString()
	allowed, err := voteRateScript.Run(ctx, client, []string{voteRateKey(userID)},
		Now().UnixMilli(), l.Window.Milliseconds(), l.Limit, slot,
	).Int()
	if err != nil {
		return "", false, fmt.Errorf("check vote rate limit: %w", err)
	}
	if allowed != 1 {
		return "", false, nil
	}
	return slot, true, nil
}

func (l *RedisVoteRateLimiter) Release(ctx context.Context, userID uint, slot string) error {
	client := database.RedisClient
	if client == nil || slot == "" {
		return nil
	}
	if err := client.ZRem(ctx, voteRateKey(userID), slot).Err(); err != nil {
		return fmt.Errorf("release vote rate slot: %w", err)
	}
	return nil
}

func voteRateKey(userID uint) string {
	return fmt.Sprintf("%s%d", voteRateKeyPrefix, userID)
}
