package web

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	guessCleanupEvery = 5 * time.Minute
	guessIdleExpiry   = 10 * time.Minute
)

// guessLimiter throttles failed access code and password attempts per
// client IP. Only rejected attempts spend a token, so any number of viewers
// sharing one address get in as long as they send the right code.
type guessLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*guessEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type guessEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newGuessLimiter(failuresPerSecond float64, burst int) *guessLimiter {
	if burst < 1 {
		burst = 1
	}
	return &guessLimiter{
		limiters:  make(map[string]*guessEntry),
		rate:      rate.Limit(failuresPerSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(guessCleanupEvery),
	}
}

func (l *guessLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.cleanupAt) {
		cutoff := now.Add(-guessIdleExpiry)
		for key, entry := range l.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(l.limiters, key)
			}
		}
		l.cleanupAt = now.Add(guessCleanupEvery)
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &guessEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Middleware rejects a client whose failure budget is spent, and charges
// the budget for every request the handler refuses.
func (l *guessLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			limiter := l.limiterFor(ip)
			if limiter.Tokens() < 1 {
				slog.Warn("too many failed attempts", "remote_ip", ip, "path", c.Path())
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"valid": false,
					"error": "Too many attempts. Wait a moment and try again.",
				})
			}

			err := next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				limiter.Allow()
			}
			return err
		}
	}
}
