package governance

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiterConfig defines the per-client token bucket.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL evicts buckets that have not been used for this long. Zero keeps
	// them for ten minutes.
	IdleTTL time.Duration
}

const defaultIdleTTL = 10 * time.Minute

// RateLimiter implements token bucket rate limiting per client key.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	config    RateLimiterConfig
	now       func() time.Time
	lastSweep time.Time
}

// NewRateLimiter creates a rate limiter with the provided configuration.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
	}
	rl.Configure(config)
	rl.lastSweep = rl.now()
	return rl
}

// Configure updates the limits. Existing buckets keep their tokens, capped to
// the new burst size.
func (rl *RateLimiter) Configure(config RateLimiterConfig) {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 100
	}
	if config.BurstSize <= 0 {
		config.BurstSize = int(math.Ceil(config.RequestsPerSecond))
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaultIdleTTL
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.config = config
	for _, bucket := range rl.buckets {
		bucket.configure(config.RequestsPerSecond, float64(config.BurstSize))
	}
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is how long until one token is available. Zero when allowed.
	RetryAfter time.Duration
}

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.Take(key).Allowed
}

// Take consumes one token for key and describes the bucket afterwards.
func (rl *RateLimiter) Take(key string) Decision {
	now := rl.now()

	rl.mu.Lock()
	rl.sweep(now)
	bucket, exists := rl.buckets[key]
	if !exists {
		bucket = newTokenBucket(rl.config.RequestsPerSecond, float64(rl.config.BurstSize), now)
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()

	return bucket.take(now)
}

// AllowContext checks if a request is allowed, with context cancellation support.
func (rl *RateLimiter) AllowContext(ctx context.Context, key string) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	return rl.Allow(key)
}

// sweep drops idle buckets. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.config.IdleTTL {
		return
	}
	for key, bucket := range rl.buckets {
		if bucket.idleSince(now) >= rl.config.IdleTTL {
			delete(rl.buckets, key)
		}
	}
	rl.lastSweep = now
}

// Len reports the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// tokenBucket implements a token bucket algorithm for rate limiting.
type tokenBucket struct {
	mu         sync.Mutex
	rate       float64   // tokens per second
	capacity   float64   // maximum burst size
	tokens     float64   // current available tokens
	lastRefill time.Time // last time tokens were refilled
}

func newTokenBucket(rate, capacity float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     capacity,
		lastRefill: now,
	}
}

func (tb *tokenBucket) configure(rate, capacity float64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.rate = rate
	tb.capacity = capacity
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
}

func (tb *tokenBucket) take(now time.Time) Decision {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)

	d := Decision{Limit: int(tb.capacity)}
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		d.Allowed = true
		d.Remaining = int(tb.tokens)
		return d
	}

	missing := 1.0 - tb.tokens
	d.RetryAfter = time.Duration(missing / tb.rate * float64(time.Second))
	return d
}

// refill adds tokens to the bucket based on elapsed time.
func (tb *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

func (tb *tokenBucket) idleSince(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return now.Sub(tb.lastRefill)
}

// WriteRateLimitHeaders adds rate limit status headers to the response.
func WriteRateLimitHeaders(w http.ResponseWriter, d Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.Allowed {
		secs := int(math.Ceil(d.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
}
