// Package middleware provides HTTP middleware for the fund ledger service.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBuckets caps the tracked-caller table.
const maxBuckets = 100_000

// Bucket sweep cadence and the idle age past which a bucket is dropped.
const (
	sweepInterval = 5 * time.Minute
	bucketMaxIdle = 10 * time.Minute
)

// RateLimiter is a token bucket limiter keyed per caller: authenticated
// requests bucket by API key hash, everything else by client IP.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
}

// bucket holds one caller's remaining tokens. Rate and burst live on the
// limiter; buckets carry only state.
type bucket struct {
	tokens   float64
	lastFill time.Time
}

// NewRateLimiter creates a limiter refilling ratePerSec tokens up to burst.
// A background sweep drops idle buckets until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    float64(ratePerSec),
		burst:   float64(burst),
	}
	go rl.sweep(ctx)

	return rl
}

func (rl *RateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if now.Sub(b.lastFill) > bucketMaxIdle {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// take refills the bucket for the elapsed time, fractionally, and spends one
// token if a whole one is available.
func (rl *RateLimiter) take(b *bucket, now time.Time) bool {
	b.tokens += now.Sub(b.lastFill).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}

	b.lastFill = now

	if b.tokens < 1 {
		return false
	}

	b.tokens--

	return true
}

// Allow spends one token from the caller's bucket, creating the bucket on
// first sight. tracked is false when the table is full and the caller is
// new; such callers are refused without being recorded.
func (rl *RateLimiter) Allow(key string) (allowed, tracked bool) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		if len(rl.buckets) >= maxBuckets {
			return false, false
		}

		b = &bucket{tokens: rl.burst, lastFill: now}
		rl.buckets[key] = b
	}

	return rl.take(b, now), true
}

// limiterKey buckets authenticated callers by key hash and anonymous ones by
// client IP. SetTrustedProxies(nil) in the router keeps ClientIP spoof-free.
func limiterKey(c *gin.Context) string {
	if token := ExtractBearerToken(c); token != "" {
		return "key:" + fingerprint(token)
	}

	return "ip:" + c.ClientIP()
}

// Handler returns gin middleware enforcing the limit per caller.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, tracked := rl.Allow(limiterKey(c))
		if !tracked {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many distinct callers")

			return
		}

		if !allowed {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
