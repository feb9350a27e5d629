package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/af-corp/textguard/internal/config"
)

const keyPrefix = "textguard:rl:"

// LimitResult is the outcome of a rate limit check.
type LimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// maxLocalKeys bounds the in-process fallback before full buckets are pruned.
const maxLocalKeys = 10000

// Limiter performs per-user sliding-window rate limiting backed by Redis
// sorted sets. Without Redis it falls back to an in-process token bucket per
// key, which only limits within one replica.
type Limiter struct {
	rdb *redis.Client
	cfg func() config.RateLimitConfig

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewLimiter creates a new rate limiter. rdb may be nil.
func NewLimiter(rdb *redis.Client, cfg func() config.RateLimitConfig) *Limiter {
	return &Limiter{rdb: rdb, cfg: cfg, local: make(map[string]*rate.Limiter)}
}

// slidingWindowScript atomically removes expired entries, counts, and adds
// the current hit when under the limit.
// KEYS[1] = sorted set key
// ARGV[1] = window start (unix micro)
// ARGV[2] = now (unix micro)
// ARGV[3] = limit
// ARGV[4] = TTL seconds for the key
// Returns: [current_count, 1=allowed/0=denied]
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('EXPIRE', key, ttl)
    return {count + 1, 1}
end

redis.call('EXPIRE', key, ttl)
return {count, 0}
`)

// Allow checks the configured per-user message rate. Disabled limiting
// always allows.
func (l *Limiter) Allow(ctx context.Context, userID string) LimitResult {
	cfg := l.cfg()
	if !cfg.Enabled || cfg.Messages <= 0 {
		return LimitResult{Allowed: true, Remaining: cfg.Messages}
	}
	return l.Check(ctx, userID, cfg.Messages, cfg.Window)
}

// Check performs a sliding-window check of limit hits per window for key.
func (l *Limiter) Check(ctx context.Context, key string, limit int64, window time.Duration) LimitResult {
	now := time.Now()
	if l.rdb == nil {
		return l.checkLocal(now, key, limit, window)
	}

	windowStart := now.Add(-window).UnixMicro()
	ttlSecs := int64(window.Seconds()) + 1

	result, err := slidingWindowScript.Run(ctx, l.rdb, []string{keyPrefix + key},
		windowStart, now.UnixMicro(), limit, ttlSecs,
	).Int64Slice()
	if err != nil {
		// fail open
		slog.Warn("rate limit check failed", "key", key, "error", err)
		return LimitResult{Allowed: true, Remaining: limit, ResetAt: now.Add(window)}
	}

	count := result[0]
	allowed := result[1] == 1
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = window / 2
	}

	return LimitResult{
		Allowed:    allowed,
		Remaining:  remaining,
		ResetAt:    now.Add(window),
		RetryAfter: retryAfter,
	}
}

func (l *Limiter) checkLocal(now time.Time, key string, limit int64, window time.Duration) LimitResult {
	every := window / time.Duration(limit)
	l.mu.Lock()
	lim, ok := l.local[key]
	if !ok || lim.Burst() != int(limit) || lim.Limit() != rate.Every(every) {
		if len(l.local) >= maxLocalKeys {
			l.pruneLocal(now)
		}
		lim = rate.NewLimiter(rate.Every(every), int(limit))
		l.local[key] = lim
	}
	l.mu.Unlock()

	res := LimitResult{ResetAt: now.Add(window)}
	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
	} else {
		res.Allowed = true
	}
	if remaining := int64(lim.TokensAt(now)); remaining > 0 {
		res.Remaining = remaining
	}
	return res
}

// pruneLocal drops buckets that have refilled completely. Callers hold mu.
func (l *Limiter) pruneLocal(now time.Time) {
	for k, lim := range l.local {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(l.local, k)
		}
	}
}
