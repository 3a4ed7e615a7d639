package fetchengine

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks run-wide transfer counters. All methods are safe for
// concurrent use by workers. Stats never prints; consumers pull value
// snapshots and render them however they like.
//
// TransferredBytes streams up during copies so live displays stay accurate.
// Workers roll back the partial count when an attempt fails, so the final
// figure covers completed and skipped files only.
type Stats struct {
	transferredBytes int64 // atomic, updated on the copy hot path

	mu        sync.RWMutex
	total     int
	completed int
	skipped   int
	failed    int
	vetoed    int
	retries   int
	failures  []FileError
	startTime time.Time
	endTime   time.Time
}

// Snapshot is a point-in-time value copy of the counters.
type Snapshot struct {
	TotalFiles       int
	Completed        int
	Skipped          int
	Failed           int
	Vetoed           int // vetoed files, also counted in Failed
	Retries          int
	TransferredBytes int64
	StartTime        time.Time
	EndTime          time.Time
}

// Processed returns how many files have reached a terminal outcome.
func (s Snapshot) Processed() int {
	return s.Completed + s.Skipped + s.Failed
}

// Elapsed returns the run duration so far, or the final duration once the
// run is marked complete.
func (s Snapshot) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}

	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}

	return s.EndTime.Sub(s.StartTime)
}

// NewStats creates stats for a run over total files.
func NewStats(total int, startTime time.Time) *Stats {
	return &Stats{
		total:     total,
		startTime: startTime,
	}
}

// AddBytes credits in-flight bytes. Negative deltas roll back a failed
// attempt's partial count.
func (s *Stats) AddBytes(delta int64) {
	atomic.AddInt64(&s.transferredBytes, delta)
}

// RecordCompleted marks one file downloaded. Its bytes were already credited
// during the copy.
func (s *Stats) RecordCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed++
}

// RecordSkipped marks one file skipped, crediting its listed size.
func (s *Stats) RecordSkipped(size int64) {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()

	s.AddBytes(size)
}

// RecordFailed marks one file failed after exhausting retries.
func (s *Stats) RecordFailed(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failed++
	s.failures = append(s.failures, FileError{Path: path, Err: err})
}

// RecordVetoed marks one file vetoed by the admission guard. Vetoed files
// count as failed so the accounting invariant holds.
func (s *Stats) RecordVetoed(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vetoed++
	s.failed++
	s.failures = append(s.failures, FileError{Path: path, Err: err})
}

// RecordRetry counts one scheduled retry.
func (s *Stats) RecordRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retries++
}

// MarkComplete stamps the end of the run.
func (s *Stats) MarkComplete(endTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.endTime = endTime
}

// Snapshot returns a value copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		TotalFiles:       s.total,
		Completed:        s.completed,
		Skipped:          s.skipped,
		Failed:           s.failed,
		Vetoed:           s.vetoed,
		Retries:          s.retries,
		TransferredBytes: atomic.LoadInt64(&s.transferredBytes),
		StartTime:        s.startTime,
		EndTime:          s.endTime,
	}
}

// Failures returns a copy of the terminal errors recorded so far.
func (s *Stats) Failures() []FileError {
	s.mu.RLock()
	defer s.mu.RUnlock()

	failures := make([]FileError, len(s.failures))
	copy(failures, s.failures)

	return failures
}
