package command

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter implements per-player command rate limiting
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*playerLimit
	config   RateLimitConfig
	stop     chan struct{}
	stopOnce sync.Once
}

type playerLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitConfig configures rate limiting behavior
type RateLimitConfig struct {
	PerSecond float64       // Sustained commands per second
	Burst     int           // Commands allowed at once
	IdleAfter time.Duration // Limiters unused this long are forgotten
}

// DefaultRateLimitConfig allows key-repeat speed input with a small burst
var DefaultRateLimitConfig = RateLimitConfig{
	PerSecond: 30,
	Burst:     10,
	IdleAfter: 5 * time.Minute,
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultRateLimitConfig.IdleAfter
	}
	rl := &RateLimiter{
		limiters: make(map[string]*playerLimit),
		config:   cfg,
		stop:     make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow reports whether playerID may issue another command now
func (rl *RateLimiter) Allow(playerID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	pl, ok := rl.limiters[playerID]
	if !ok {
		pl = &playerLimit{limiter: rate.NewLimiter(rate.Limit(rl.config.PerSecond), rl.config.Burst)}
		rl.limiters[playerID] = pl
	}
	pl.lastSeen = now
	return pl.limiter.AllowN(now, 1)
}

// Forget drops a player's limiter, used when the player leaves
func (rl *RateLimiter) Forget(playerID string) {
	rl.mu.Lock()
	delete(rl.limiters, playerID)
	rl.mu.Unlock()
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup removes idle entries every minute
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.config.IdleAfter)
			for key, pl := range rl.limiters {
				if pl.lastSeen.Before(cutoff) {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
