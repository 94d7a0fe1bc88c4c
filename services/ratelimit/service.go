// Package ratelimit keeps per-client token buckets for the public write endpoints.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config configures a RateLimitService
type Config struct {
	RequestsPerMinute int
	Burst             int
	CleanupInterval   time.Duration
}

// Result is the outcome of a limit check
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimitService tracks one token bucket per scope and client key.
// Idle buckets are dropped by a background sweep started in NewRateLimitService.
type RateLimitService struct {
	limit  rate.Limit
	burst  int
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	limiters map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimitService creates the service and starts its cleanup loop
func NewRateLimitService(cfg Config, logger *zap.Logger) *RateLimitService {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	s := &RateLimitService{
		limit:    rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:    cfg.Burst,
		ttl:      cfg.CleanupInterval * 2,
		logger:   logger,
		now:      time.Now,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go s.cleanupLoop(cfg.CleanupInterval)

	return s
}

// Stop ends the cleanup loop. Safe to call more than once.
func (s *RateLimitService) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// CheckLimit consumes one token for key within scope
func (s *RateLimitService) CheckLimit(scope, key string) Result {
	limiter := s.limiter(scope + ":" + key)

	now := s.now()
	if limiter.AllowN(now, 1) {
		return Result{Allowed: true}
	}

	// Time until one token is back in the bucket
	r := limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	if delay <= 0 {
		delay = time.Second
	}

	s.logger.Debug("rate limit exceeded",
		zap.String("scope", scope),
		zap.String("client", key),
		zap.Duration("retry_after", delay))

	return Result{Allowed: false, RetryAfter: delay}
}

// Size returns the number of tracked buckets
func (s *RateLimitService) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.limiters)
}

func (s *RateLimitService) limiter(key string) *rate.Limiter {
	now := s.now()

	s.mu.RLock()
	cl, ok := s.limiters[key]
	s.mu.RUnlock()
	if ok {
		s.mu.Lock()
		cl.lastAccess = now
		s.mu.Unlock()
		return cl.limiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cl, ok := s.limiters[key]; ok {
		cl.lastAccess = now
		return cl.limiter
	}

	cl = &clientLimiter{
		limiter:    rate.NewLimiter(s.limit, s.burst),
		lastAccess: now,
	}
	s.limiters[key] = cl
	return cl.limiter
}

func (s *RateLimitService) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup drops buckets idle for longer than ttl
func (s *RateLimitService) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, cl := range s.limiters {
		if now.Sub(cl.lastAccess) > s.ttl {
			delete(s.limiters, key)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("rate limiter cleanup", zap.Int("removed", removed), zap.Int("remaining", len(s.limiters)))
	}
}
