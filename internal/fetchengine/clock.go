package fetchengine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Clock provides time functionality for dependency injection, so retry
// backoff is testable without real waiting.
type Clock interface {
	Now() time.Time
	// Sleep waits for d or until the context is canceled, returning the
	// context error in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock implements Clock using real time functions.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for d, cutting the wait short when ctx is canceled.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sleep interrupted: %w", ctx.Err())
	}
}

// MockClock is a Clock for testing. Sleeps return immediately and are
// recorded for assertion.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration

	// SleepErr, when set, is returned by every Sleep call.
	SleepErr error
}

// NewMockClock creates a MockClock starting at the given time.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now returns the mock's current time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

// Advance moves the mock's current time forward.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(d)
}

// Sleep records the requested duration, advances the mock time by it, and
// returns immediately.
func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sleep interrupted: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sleeps = append(m.sleeps, d)
	m.now = m.now.Add(d)

	return m.SleepErr
}

// Sleeps returns the durations passed to Sleep, in order.
func (m *MockClock) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	sleeps := make([]time.Duration, len(m.sleeps))
	copy(sleeps, m.sleeps)

	return sleeps
}
