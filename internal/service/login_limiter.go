package service

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const maxTrackedLogins = 10000

// LoginLimiter counts failed logins per username inside a sliding window.
// Entries live in an expirable LRU so abandoned usernames age out on their own.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts *lru.LRU[string, []time.Time]
	limit    int
	window   time.Duration
}

// NewLoginLimiter allows limit failures per window. A limit below 1 disables throttling.
func NewLoginLimiter(limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		attempts: lru.NewLRU[string, []time.Time](maxTrackedLogins, nil, window),
		limit:    limit,
		window:   window,
	}
}

// Blocked reports whether username has used up its failures for the window
func (l *LoginLimiter) Blocked(username string, now time.Time) bool {
	if l == nil || l.limit < 1 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.pruneLocked(limiterKey(username), now)) >= l.limit
}

// Fail records a failed attempt
func (l *LoginLimiter) Fail(username string, now time.Time) {
	if l == nil || l.limit < 1 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := limiterKey(username)
	l.attempts.Add(key, append(l.pruneLocked(key, now), now))
}

// Reset forgets the failures of username, called after a successful login
func (l *LoginLimiter) Reset(username string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts.Remove(limiterKey(username))
}

func (l *LoginLimiter) pruneLocked(key string, now time.Time) []time.Time {
	values, ok := l.attempts.Peek(key)
	if !ok {
		return nil
	}

	threshold := now.Add(-l.window)
	pruned := make([]time.Time, 0, len(values))
	for _, value := range values {
		if value.After(threshold) {
			pruned = append(pruned, value)
		}
	}
	return pruned
}

func limiterKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
