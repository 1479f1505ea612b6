package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Key patterns:
// - ratelimit:{ip}:votes  - fixed window, per-IP vote submissions
// - ratelimit:{ip}:sweeps - fixed window, per-IP sweep triggers

// RateLimitConfig contains the per-window limits.
type RateLimitConfig struct {
	VoteLimit   int           // max vote submissions per window
	VoteWindow  time.Duration // vote submission window
	SweepLimit  int           // max sweep triggers per window
	SweepWindow time.Duration // sweep trigger window
}

// DefaultRateLimitConfig returns sensible defaults. Vote submission is open
// to unauthenticated guests, so the limits are per client IP.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		VoteLimit:   30,
		VoteWindow:  60 * time.Second,
		SweepLimit:  6,
		SweepWindow: 60 * time.Second,
	}
}

// RateLimiter handles rate limiting using Redis.
type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{client: client, config: config}
}

// AllowVote checks if a client IP can submit another vote.
func (r *RateLimiter) AllowVote(ctx context.Context, ip string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:votes", ip)
	return r.checkLimit(ctx, key, r.config.VoteLimit, r.config.VoteWindow)
}

// AllowSweep checks if a client IP can trigger another sweep.
func (r *RateLimiter) AllowSweep(ctx context.Context, ip string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:sweeps", ip)
	return r.checkLimit(ctx, key, r.config.SweepLimit, r.config.SweepWindow)
}

// checkLimit increments and checks the counter in one atomic Lua call so two
// concurrent requests cannot both slip under the limit.
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	script := goredis.NewScript(`
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])

		local current = redis.call('GET', key)
		if current == false then
			current = 0
		else
			current = tonumber(current)
		end

		local ttl = redis.call('TTL', key)
		if ttl < 0 then
			ttl = window
		end

		if current < limit then
			redis.call('INCR', key)
			if ttl == window then
				redis.call('EXPIRE', key, window)
			end
			return {1, limit - current - 1, ttl}
		else
			return {0, 0, ttl}
		end
	`)

	result, err := script.Run(ctx, r.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}

	return &RateLimitResult{
		Allowed:   resultSlice[0].(int64) == 1,
		Remaining: int(resultSlice[1].(int64)),
		ResetIn:   time.Duration(resultSlice[2].(int64)) * time.Second,
		Limit:     limit,
	}, nil
}

// Reset clears the counters for a client IP.
func (r *RateLimiter) Reset(ctx context.Context, ip string) error {
	keys := []string{
		fmt.Sprintf("ratelimit:%s:votes", ip),
		fmt.Sprintf("ratelimit:%s:sweeps", ip),
	}
	return r.client.Del(ctx, keys...).Err()
}
