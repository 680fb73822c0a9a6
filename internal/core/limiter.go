package core

// limiter.go bounds how many unfold jobs the HTTP surface runs at once.
//
// Each job holds its whole result in memory until it is delivered, so an
// unbounded number of concurrent uploads would exhaust the process. When
// every slot is taken, new jobs wait up to maxWait and then fail with
// ErrTooManyJobs. WaitForDrain supports graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyJobs is returned when no slot frees up within the wait timeout.
var ErrTooManyJobs = errors.New("too many concurrent unfold jobs, please try again later")

// DefaultMaxConcurrentJobs is the default limit for parallel jobs.
const DefaultMaxConcurrentJobs = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// JobLimiter is a counting semaphore with a bounded wait.
type JobLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

// NewJobLimiter allows at most maxConcurrent simultaneous jobs.
// Non-positive arguments select the defaults.
func NewJobLimiter(maxConcurrent int, maxWait time.Duration) *JobLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentJobs
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &JobLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must Release
// after a nil return.
func (l *JobLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyJobs
	}
}

// Release frees a slot taken by Acquire.
func (l *JobLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// ActiveCount returns the number of running jobs.
func (l *JobLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Available returns the number of free slots.
func (l *JobLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no job is running or ctx ends.
func (l *JobLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a point-in-time snapshot for health reporting.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *JobLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}
