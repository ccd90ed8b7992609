package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter keeps one token bucket per identity. Buckets idle for longer
// than the expiration time are forgotten and start full again.
type UserRateLimiter struct {
	mu             sync.Mutex
	limiters       map[string]*entry
	rate           rate.Limit
	burst          int
	expirationTime time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func New(rps float64, burst int, expirationTime time.Duration) *UserRateLimiter {
	url := &UserRateLimiter{
		limiters:       make(map[string]*entry),
		rate:           rate.Limit(rps),
		burst:          burst,
		expirationTime: expirationTime,
		stop:           make(chan struct{}),
	}
	go url.janitor()
	return url
}

func (url *UserRateLimiter) Allow(identity string) bool {
	now := time.Now()

	url.mu.Lock()
	e, ok := url.limiters[identity]
	if !ok || now.Sub(e.lastSeen) > url.expirationTime {
		e = &entry{limiter: rate.NewLimiter(url.rate, url.burst)}
		url.limiters[identity] = e
	}
	e.lastSeen = now
	url.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

func (url *UserRateLimiter) janitor() {
	ticker := time.NewTicker(url.expirationTime)
	defer ticker.Stop()
	for {
		select {
		case <-url.stop:
			return
		case now := <-ticker.C:
			url.cleanup(now)
		}
	}
}

func (url *UserRateLimiter) cleanup(now time.Time) {
	url.mu.Lock()
	defer url.mu.Unlock()
	for identity, e := range url.limiters {
		if now.Sub(e.lastSeen) > url.expirationTime {
			delete(url.limiters, identity)
		}
	}
}

func (url *UserRateLimiter) size() int {
	url.mu.Lock()
	defer url.mu.Unlock()
	return len(url.limiters)
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (url *UserRateLimiter) Stop() {
	url.stopOnce.Do(func() { close(url.stop) })
}
