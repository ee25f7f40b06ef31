// internal/app/system/ratelimit/ratelimit.go

// Package ratelimit guards the console login endpoint against
// credential stuffing. A Limiter counts attempts per key over fixed
// windows; LoginLimiter pairs one keyed by client address with one
// keyed by account email.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts events per key over a fixed window. Safe for
// concurrent use. Lapsed entries are swept during writes, so an idle
// limiter holds no goroutine.
type Limiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	buckets   map[string]bucket
	nextSweep time.Time
}

type bucket struct {
	hits    int
	resetAt time.Time
}

// New returns a limiter allowing limit events per key per window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:     limit,
		window:    window,
		buckets:   make(map[string]bucket),
		nextSweep: time.Now().Add(2 * window),
	}
}

// Allow records an attempt for key and reports whether it fits the
// limit. The first attempt after a window lapses opens a fresh one.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.maybeSweep(now)

	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		l.buckets[key] = bucket{hits: 1, resetAt: now.Add(l.window)}
		return true
	}
	if b.hits >= l.limit {
		return false
	}
	b.hits++
	l.buckets[key] = b
	return true
}

// Remaining reports how many attempts key has left in its current
// window. A key with no open window has the full allowance.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || time.Now().After(b.resetAt) {
		return l.limit
	}
	if b.hits >= l.limit {
		return 0
	}
	return l.limit - b.hits
}

// Reset forgets key's window entirely.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// maybeSweep drops lapsed buckets, at most once per double window.
// Caller holds mu.
func (l *Limiter) maybeSweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, key)
		}
	}
	l.nextSweep = now.Add(2 * l.window)
}

// ClientIP returns the caller's address for limiter keys: the leftmost
// X-Forwarded-For entry when a proxy set one, then X-Real-IP, then the
// connection's RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(part); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginLimiter tracks login attempts on two axes, by client address
// and by target account, so neither a single source nor a distributed
// set of sources gets unlimited guesses at one email.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter returns the production configuration: 10 attempts
// per address per minute, 5 per account per five minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig builds a login limiter with explicit
// limits and windows. Tests use it to hit the limits without looping.
func NewLoginLimiterWithConfig(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipLimit, ipWindow),
		byEmail: New(emailLimit, emailWindow),
	}
}

// Check records a login attempt and reports whether it may proceed.
// The reason is for the server log, not the response body.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "address exceeded the login attempt limit"
	}
	if email != "" {
		if !ll.byEmail.Allow(strings.ToLower(strings.TrimSpace(email))) {
			return false, "account exceeded the login attempt limit"
		}
	}
	return true, ""
}

// ResetEmail clears the account's window after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if email == "" {
		return
	}
	ll.byEmail.Reset(strings.ToLower(strings.TrimSpace(email)))
}
