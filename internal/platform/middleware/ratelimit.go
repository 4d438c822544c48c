package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// tokenBucket implements a token bucket rate limiter.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: time.Now(),
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (b *tokenBucket) retryAfter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refillRate <= 0 {
		return 1
	}
	return int((1-b.tokens)/b.refillRate) + 1
}

// RateLimit limits requests per client IP with a token bucket per client.
// Buckets are evicted lazily once idle for ten minutes.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	var (
		mu       sync.Mutex
		buckets  = make(map[string]*clientBucket)
		lastScan = time.Now()
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			mu.Lock()
			cb, ok := buckets[ip]
			if !ok {
				cb = &clientBucket{bucket: newTokenBucket(cfg.RequestsPerSecond, cfg.BurstSize)}
				buckets[ip] = cb
			}
			cb.lastSeen = time.Now()
			if time.Since(lastScan) > 10*time.Minute {
				for k, v := range buckets {
					if time.Since(v.lastSeen) > 10*time.Minute {
						delete(buckets, k)
					}
				}
				lastScan = time.Now()
			}
			mu.Unlock()

			if !cb.bucket.allow() {
				c.Response().Header().Set("Retry-After", strconv.Itoa(cb.bucket.retryAfter()))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

type clientBucket struct {
	bucket   *tokenBucket
	lastSeen time.Time
}
