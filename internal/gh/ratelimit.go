package gh

import (
	"sync"
	"time"
)

// RateLimitState tracks the rate limit headers observed on one client.
type RateLimitState struct {
	mu        sync.RWMutex
	remaining int
	limit     int
	resetAt   time.Time
}

// Update records the latest rate limit headers.
func (s *RateLimitState) Update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
}

// Status returns the last observed rate limit values.
func (s *RateLimitState) Status() (remaining, limit int, resetAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining, s.limit, s.resetAt
}
