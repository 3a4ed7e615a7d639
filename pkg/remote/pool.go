package remote

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDialDelay is the minimum spacing between new connections, so a burst
// of workers does not hammer the server's login handler.
const DefaultDialDelay = 2 * time.Second

// Pool recycles sessions across transfers, bounded by a fixed capacity.
// It uses a channel-based semaphore pattern for thread-safe concurrent access.
//
// Sessions are created lazily: the pool starts empty and dials on demand when
// Acquire finds no idle session. Idle sessions are validated with a liveness
// probe before reuse; sessions that fail the probe are discarded and replaced.
// New connections are rate limited to one per dial delay.
//
// The pool bounds how many sessions can exist, but callers enforce their own
// concurrency limit on top of it; Acquire dials a fresh session rather than
// blocking when all idle sessions are in use.
type Pool struct {
	dialer    Dialer
	idle      chan Session
	dialDelay time.Duration

	mu     sync.Mutex // protects closed flag
	closed bool

	dialMu   sync.Mutex // serializes dials for rate limiting
	lastDial time.Time

	created int32 // total sessions dialed over the pool's lifetime (atomic)
}

// NewPool creates a pool holding at most capacity idle sessions for the
// given dialer. A dialDelay of 0 or below falls back to DefaultDialDelay.
func NewPool(dialer Dialer, capacity int, dialDelay time.Duration) (*Pool, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be greater than 0, got %d", capacity) //nolint:err113 // Validation error with actual value
	}

	if dialDelay <= 0 {
		dialDelay = DefaultDialDelay
	}

	return &Pool{
		dialer:    dialer,
		idle:      make(chan Session, capacity),
		dialDelay: dialDelay,
	}, nil
}

// Acquire returns a live session, reusing an idle one when possible.
// Idle sessions that fail the liveness probe are closed and skipped.
// Returns an error if the pool is closed or the context is canceled.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	// Drain idle sessions until one passes the liveness probe
	for {
		select {
		case session, ok := <-p.idle:
			if !ok {
				return nil, ErrPoolClosed
			}

			if err := session.Noop(); err != nil {
				// Stale connection, discard and keep looking
				_ = session.Close()

				continue
			}

			return session, nil
		default:
			return p.dial(ctx)
		}
	}
}

// Release returns a session to the idle set. If the pool is closed or already
// holds its capacity of idle sessions, the session is closed instead.
// Handles nil sessions gracefully by returning immediately.
func (p *Pool) Release(session Session) {
	if session == nil {
		return
	}

	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		_ = session.Close()

		return
	}

	// Held across the send so Shutdown cannot close the channel mid-release
	select {
	case p.idle <- session:
		p.mu.Unlock()
	default:
		// Idle set full, drop the extra connection
		p.mu.Unlock()
		_ = session.Close()
	}
}

// Discard closes a session without returning it to the pool. Workers call
// this after a transfer error, since the connection state is suspect.
func (p *Pool) Discard(session Session) {
	if session == nil {
		return
	}

	_ = session.Close()
}

// Shutdown closes all idle sessions and rejects further operations.
// Best effort: the first close error is reported, remaining sessions are
// closed regardless. Shutdown is idempotent.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return nil
	}
	p.closed = true
	close(p.idle)
	p.mu.Unlock()

	var firstErr error

	for session := range p.idle {
		if err := session.Close(); err != nil && firstErr == nil { //nolint:noinlineerr // Inline error check is idiomatic for cleanup operations
			firstErr = err
		}
	}

	return firstErr
}

// Created returns the total number of sessions dialed over the pool's
// lifetime, including discarded ones.
func (p *Pool) Created() int {
	return int(atomic.LoadInt32(&p.created))
}

// IdleCount returns the number of sessions currently parked in the pool.
func (p *Pool) IdleCount() int {
	return len(p.idle)
}

// dial creates a new session, spacing consecutive dials by the dial delay.
func (p *Pool) dial(ctx context.Context) (Session, error) {
	p.dialMu.Lock()
	defer p.dialMu.Unlock()

	// First dial goes immediately; later ones wait out the remaining delay
	if !p.lastDial.IsZero() {
		if remaining := p.dialDelay - time.Since(p.lastDial); remaining > 0 {
			timer := time.NewTimer(remaining)

			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()

				return nil, fmt.Errorf("waiting for dial slot: %w", ctx.Err())
			}
		}
	}

	session, err := p.dialer.Dial(ctx)
	p.lastDial = time.Now()

	if err != nil {
		return nil, err
	}

	atomic.AddInt32(&p.created, 1)

	return session, nil
}
