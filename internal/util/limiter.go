package util

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps outbound fetches polite with one token bucket per host.
// A nil *Limiter or one built with a non-positive rate never blocks.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a per-host limiter. It returns nil when requestsPerSecond <= 0.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the host of rawURL may be contacted or ctx is done.
// A wait that cannot finish before ctx's deadline fails at once with an
// error wrapping context.DeadlineExceeded.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	if l == nil {
		return nil
	}
	host, err := hostKey(rawURL)
	if err != nil {
		return err
	}
	if err := l.forHost(host).Wait(ctx); err != nil {
		// rate refuses up front when the reservation outlasts the deadline
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return err
	}
	return nil
}

// Allow reports whether a request to rawURL may proceed right now
func (l *Limiter) Allow(rawURL string) bool {
	if l == nil {
		return true
	}
	host, err := hostKey(rawURL)
	if err != nil {
		return false
	}
	return l.forHost(host).Allow()
}

// SlowHost lowers the rate for host to at most one request per delay.
// It never raises an existing rate.
func (l *Limiter) SlowHost(host string, delay time.Duration) {
	if l == nil || delay <= 0 {
		return
	}
	limit := rate.Every(delay)

	l.mu.Lock()
	defer l.mu.Unlock()

	host = strings.ToLower(host)
	if existing, ok := l.limiters[host]; ok && existing.Limit() <= limit {
		return
	}
	l.limiters[host] = rate.NewLimiter(limit, 1)
}

func (l *Limiter) forHost(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter

	return limiter
}

// hostKey returns the lowercased hostname of rawURL without port
func hostKey(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return strings.ToLower(parsed.Hostname()), nil
}
