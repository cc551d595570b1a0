package redis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding window rate limiting using Redis
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
	seq    atomic.Uint64
}

// slidingWindow is an atomic ZSET sliding window.
// ARGV[5] is a unique member so same-millisecond requests are all counted.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, ARGV[5])
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // Unique identifier (e.g., "diseasesh")
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		// Redis 비활성화 시 모두 허용
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()

	rdb := r.client.Redis()

	seq := r.seq.Add(1)

	result, err := slidingWindow.Run(ctx, rdb, []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		fmt.Sprintf("%d-%d", now, seq),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))

	return allowed, remaining, nil
}

// Wait blocks until a request is allowed or context is cancelled.
// It polls once per slot (Window/Limit), never slower than maxPoll.
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	pause := maxPoll
	if cfg.Limit > 0 && cfg.Window/time.Duration(cfg.Limit) < pause {
		pause = cfg.Window / time.Duration(cfg.Limit)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		allowed, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		timer.Reset(pause)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

const maxPoll = 100 * time.Millisecond

// Predefined rate limit configs for external APIs
var (
	// disease.sh: 초당 10회 제한 (보수적)
	DiseaseShRateLimit = RateLimitConfig{
		Key:    "diseasesh",
		Limit:  10,
		Window: time.Second,
	}
)

// UpstreamRateLimit builds the disease.sh limit from a requests-per-second setting
func UpstreamRateLimit(perSecond int) RateLimitConfig {
	if perSecond <= 0 {
		return DiseaseShRateLimit
	}
	return RateLimitConfig{
		Key:    DiseaseShRateLimit.Key,
		Limit:  perSecond,
		Window: time.Second,
	}
}
