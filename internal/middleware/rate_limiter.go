package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"sosstock/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// window counts hits from one client within a fixed window.
type window struct {
	count int
	end   time.Time
}

// windowLimiter is a per-IP fixed-window counter.
type windowLimiter struct {
	mu      sync.Mutex
	limit   int
	span    time.Duration
	entries map[string]*window
	now     func() time.Time
}

func newWindowLimiter(limit int, span time.Duration) *windowLimiter {
	l := &windowLimiter{limit: limit, span: span, entries: make(map[string]*window), now: time.Now}
	registerLimiter(l)
	return l
}

// allow records a hit for key and reports whether it is within the limit,
// together with the end of the current window.
func (l *windowLimiter) allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.span)}
		l.entries[key] = w
	}
	w.count++
	return w.count <= l.limit, w.end
}

// purge drops expired windows and returns how many were removed.
func (l *windowLimiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for k, w := range l.entries {
		if now.After(w.end) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

func (l *windowLimiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, end := l.allow(c.ClientIP())
		if !ok {
			secs := int(time.Until(end).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits sign-in and password reset attempts to 20 per
// minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter(20, time.Minute).handler("Too many attempts, try again in a minute")
}

// RateLimiter limits every client IP to limit requests per window.
func RateLimiter(limit int, span time.Duration) gin.HandlerFunc {
	return newWindowLimiter(limit, span).handler("Too many requests, try again shortly")
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Expired windows of IPs that never come back are removed periodically.

const purgeInterval = 5 * time.Minute

var (
	limitersMu sync.Mutex
	limiters   []*windowLimiter
	purgeOnce  sync.Once
)

func registerLimiter(l *windowLimiter) {
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	purgeOnce.Do(func() { go purgeLoop() })
}

func purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for range ticker.C {
		limitersMu.Lock()
		purged := 0
		for _, l := range limiters {
			purged += l.purge()
		}
		limitersMu.Unlock()
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter windows purged")
		}
	}
}
