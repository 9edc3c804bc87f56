// Package ratelimit implements fixed-window request limits backed by Redis,
// with an in-process fallback for single-node deployments and tests.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"zuzuplan-backend/pkg/metrics"
	"zuzuplan-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter counts hits per key in a window using INCR and EXPIRE.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, max: max, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", l.prefix, key)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit incr: %w", err)
	}

	count := int(incr.Val())
	if count <= l.max {
		return Result{Allowed: true, Remaining: l.max - count}, nil
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	return Result{Allowed: false, RetryAfter: ttl}, nil
}

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a process-local fixed-window limiter. Expired windows
// are swept at most once per window length.
type MemoryLimiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	windows   map[string]*window
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryLimiter(max int, windowSize time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		window:  windowSize,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++

	if w.count <= l.max {
		return Result{Allowed: true, Remaining: l.max - w.count}, nil
	}
	return Result{Allowed: false, RetryAfter: w.start.Add(l.window).Sub(now)}, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
	l.lastSweep = now
}

// Middleware rejects requests over the limit with 429. The key is the
// policy name plus the client IP. Limiter failures let the request through.
func Middleware(limiter Limiter, policy, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), policy+":"+c.ClientIP())
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.String("policy", policy), zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			metrics.IncrementRateLimited(policy)
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Round(time.Second).Seconds())))
			response.Abort(c, http.StatusTooManyRequests, message)
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Next()
	}
}
