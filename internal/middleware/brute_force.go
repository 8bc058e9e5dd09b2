package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	maxAuthFailures    = 5
	failureWindow      = 15 * time.Minute
	lockoutDuration    = 5 * time.Minute
	guardSweepInterval = time.Minute
	maxTrackedKeys     = 10000
)

type authFailures struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
}

// BruteForceGuard locks out API keys that fail authentication too often
// within the tracking window. Keys are stored as SHA-256 hashes, so a
// guessed key never sits in memory in the clear.
type BruteForceGuard struct {
	mu      sync.Mutex
	records map[string]*authFailures
	log     *logrus.Logger
}

// NewBruteForceGuard creates a guard whose background sweep runs until ctx
// is cancelled.
func NewBruteForceGuard(ctx context.Context, log *logrus.Logger) *BruteForceGuard {
	g := &BruteForceGuard{
		records: make(map[string]*authFailures),
		log:     log,
	}
	go g.sweepLoop(ctx)

	return g
}

func fingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))

	return hex.EncodeToString(sum[:])
}

// IsBlocked reports whether the key is locked out right now.
func (g *BruteForceGuard) IsBlocked(apiKey string) bool {
	fp := fingerprint(apiKey)

	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.records[fp]

	return rec != nil && time.Now().Before(rec.blockedUntil)
}

// RecordFailure counts one failed authentication for the key. Reaching the
// failure threshold inside the window locks the key out.
func (g *BruteForceGuard) RecordFailure(apiKey string) {
	fp := fingerprint(apiKey)
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec := g.records[fp]
	switch {
	case rec == nil:
		g.records[fp] = &authFailures{count: 1, windowStart: now}
	case now.Sub(rec.windowStart) > failureWindow:
		// The previous window lapsed, so this failure starts a fresh count.
		*rec = authFailures{count: 1, windowStart: now}
	default:
		rec.count++
		if rec.count >= maxAuthFailures {
			rec.blockedUntil = now.Add(lockoutDuration)
			g.log.WithField("key_fp", fp[:12]).Warn("api key locked out after repeated auth failures")
		}
	}
}

// ResetKey clears failure tracking for a key. Called on successful auth.
func (g *BruteForceGuard) ResetKey(apiKey string) {
	fp := fingerprint(apiKey)

	g.mu.Lock()
	delete(g.records, fp)
	g.mu.Unlock()
}

func (g *BruteForceGuard) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(guardSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep(time.Now())
		}
	}
}

// sweep drops records whose window has lapsed and whose lockout, if any, has
// expired. If the table still exceeds its cap afterwards it trims the oldest
// entries.
func (g *BruteForceGuard) sweep(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for fp, rec := range g.records {
		if now.Sub(rec.windowStart) >= failureWindow && !now.Before(rec.blockedUntil) {
			delete(g.records, fp)
		}
	}

	if excess := len(g.records) - maxTrackedKeys; excess > 0 {
		g.trimOldest(excess)
	}
}

// trimOldest removes the n records with the earliest window start. Caller
// holds g.mu.
func (g *BruteForceGuard) trimOldest(n int) {
	type entry struct {
		fp    string
		start time.Time
	}

	all := make([]entry, 0, len(g.records))
	for fp, rec := range g.records {
		all = append(all, entry{fp: fp, start: rec.windowStart})
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].start.Before(all[j].start)
	})

	for _, e := range all[:n] {
		delete(g.records, e.fp)
	}
}

// BruteForceMiddleware refuses requests from locked-out keys before the auth
// check runs. Requests without a bearer token pass through untouched.
func BruteForceMiddleware(guard *BruteForceGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey := ExtractBearerToken(c); apiKey != "" && guard.IsBlocked(apiKey) {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "temporarily locked out after repeated authentication failures")

			return
		}

		c.Next()
	}
}
