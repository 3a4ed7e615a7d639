package fetchengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/memguard"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/remote"
)

// AdmissionGuard decides whether a new transfer may start.
type AdmissionGuard interface {
	Check() memguard.Decision
}

// fileState is one node in the per-file state machine.
type fileState int

// Per-file states. Every file walks this machine to exactly one terminal
// outcome, so completed+skipped+failed always sums to the planned total.
const (
	stateCheckingLocal fileState = iota
	stateAdmission
	stateAttempting
	stateBackoff
	stateSkippedDone
	stateVetoedDone
	stateCompletedDone
	stateFailedDone
)

// worker processes files one at a time, driving each through the state
// machine. Workers share the pool, stats, permits, and emitter; everything
// else is per-call.
type worker struct {
	pool    *remote.Pool
	guard   AdmissionGuard
	stats   *Stats
	emitter EventEmitter
	clock   Clock
	permits *semaphore.Weighted
	cfg     Config
}

// process drives one file to a terminal outcome.
//
//nolint:cyclop,funlen // State machine dispatch is clearest as a single loop
func (w *worker) process(ctx context.Context, job RemotePath) TransferResult {
	var (
		state      = stateCheckingLocal
		attempt    int
		lastErr    error
		bytes      int64
		needVerify bool
	)

	localPath := filepath.Join(w.cfg.DestRoot, filepath.FromSlash(job.Subdir), job.Name)

	for {
		switch state {
		case stateCheckingLocal:
			info, err := os.Stat(localPath)

			switch {
			case err == nil && !w.cfg.VerifySizes:
				bytes = localSizeOrListed(info.Size(), job.Size)
				state = stateSkippedDone
			case err == nil:
				// Skip decision deferred until the remote size is known
				needVerify = true
				state = stateAdmission
			default:
				state = stateAdmission
			}

		case stateAdmission:
			decision := w.guard.Check()
			if !decision.Admitted {
				lastErr = fmt.Errorf("memory usage %.1f%% exceeds %.1f%% threshold", //nolint:err113 // terminal veto reason with live values
					decision.Usage.UsedPercent, w.cfg.MemoryThresholdPercent)

				w.emitter.Emit(FileVetoed{Path: job.Full(), UsedPercent: decision.Usage.UsedPercent})

				state = stateVetoedDone

				continue
			}

			state = stateAttempting

		case stateAttempting:
			attempt++

			written, skipped, err := w.attempt(ctx, job, localPath, needVerify)

			switch {
			case skipped:
				bytes = written
				state = stateSkippedDone
			case err == nil:
				bytes = written
				state = stateCompletedDone
			case ctx.Err() != nil || attempt >= w.cfg.MaxAttempts:
				lastErr = err
				state = stateFailedDone
			default:
				lastErr = err
				state = stateBackoff
			}

		case stateBackoff:
			// Linear backoff: base delay times the attempt just failed
			delay := w.cfg.RetryBaseDelay * time.Duration(attempt)

			w.stats.RecordRetry()
			w.emitter.Emit(RetryScheduled{
				Path:    job.Full(),
				Attempt: attempt,
				Delay:   delay,
				Err:     lastErr,
			})

			if err := w.clock.Sleep(ctx, delay); err != nil {
				lastErr = err
				state = stateFailedDone

				continue
			}

			state = stateAttempting

		case stateSkippedDone:
			w.stats.RecordSkipped(bytes)
			w.emitter.Emit(FileSkipped{Path: job.Full(), Size: bytes})

			return TransferResult{Path: job, Outcome: OutcomeSkipped, Bytes: bytes}

		case stateVetoedDone:
			w.stats.RecordVetoed(job.Full(), lastErr)

			return TransferResult{Path: job, Outcome: OutcomeVetoed, Err: lastErr}

		case stateCompletedDone:
			w.stats.RecordCompleted()

			return TransferResult{Path: job, Outcome: OutcomeCompleted, Bytes: bytes, Attempts: attempt}

		case stateFailedDone:
			w.stats.RecordFailed(job.Full(), lastErr)
			w.emitter.Emit(FileFailed{Path: job.Full(), Attempts: attempt, Err: lastErr})

			return TransferResult{Path: job, Outcome: OutcomeFailed, Attempts: attempt, Err: lastErr}
		}
	}
}

// attempt performs one transfer try: acquire a permit and a session, stream
// the file to disk, and return the session to the pool. On error the session
// is discarded and the partial local file removed.
//
// When verify is set the local file already exists; the attempt compares its
// size with the server's answer and reports a skip when they match.
//
//nolint:cyclop // Sequential resource acquisition with distinct failure paths
func (w *worker) attempt(ctx context.Context, job RemotePath, localPath string, verify bool) (int64, bool, error) {
	if err := w.permits.Acquire(ctx, 1); err != nil {
		return 0, false, fmt.Errorf("waiting for transfer slot: %w", err)
	}
	defer w.permits.Release(1)

	session, err := w.pool.Acquire(ctx)
	if err != nil {
		return 0, false, err
	}

	remotePath := job.Full()
	total := job.Size

	if verify {
		remoteSize, err := session.Size(remotePath)
		if err != nil {
			w.pool.Discard(session)

			return 0, false, err
		}

		if info, statErr := os.Stat(localPath); statErr == nil && info.Size() == remoteSize {
			w.pool.Release(session)

			return remoteSize, true, nil
		}

		total = remoteSize
	}

	w.emitter.Emit(FileStarted{Path: remotePath, Size: total})

	start := w.clock.Now()

	written, err := w.download(ctx, session, remotePath, localPath, total)
	if err != nil {
		w.pool.Discard(session)
		w.stats.AddBytes(-written)
		removePartial(localPath)

		return 0, false, err
	}

	w.pool.Release(session)
	w.emitter.Emit(FileComplete{Path: remotePath, Bytes: written, Elapsed: w.clock.Now().Sub(start)})

	return written, false, nil
}

// download streams one remote file to disk in chunks, crediting bytes as
// they arrive and emitting progress at the configured interval.
//
//nolint:cyclop // Chunked copy loop with cancellation and progress checks
func (w *worker) download(ctx context.Context, session remote.Session, remotePath, localPath string, total int64) (int64, error) {
	reader, err := session.Retrieve(remotePath)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		_ = reader.Close()

		return 0, fmt.Errorf("creating local directory: %w", err)
	}

	file, err := os.Create(localPath)
	if err != nil {
		_ = reader.Close()

		return 0, fmt.Errorf("creating local file: %w", err)
	}

	var (
		written      int64
		lastProgress int64
		buf          = make([]byte, w.cfg.ChunkSize)
	)

	for {
		if err := ctx.Err(); err != nil {
			return w.closeDownload(reader, file, written, fmt.Errorf("download canceled: %w", err))
		}

		n, readErr := reader.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return w.closeDownload(reader, file, written, fmt.Errorf("writing local file: %w", writeErr))
			}

			written += int64(n)
			w.stats.AddBytes(int64(n))

			if written-lastProgress >= w.cfg.ProgressInterval {
				lastProgress = written
				w.emitter.Emit(FileProgress{Path: remotePath, Bytes: written, Total: total})
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}

			return w.closeDownload(reader, file, written, fmt.Errorf("reading remote file: %w", readErr))
		}
	}

	// Close errors matter here: an unflushed write or truncated data
	// connection must fail the attempt, not pass silently.
	if err := reader.Close(); err != nil {
		_ = file.Close()

		return written, fmt.Errorf("closing remote reader: %w", err)
	}

	if err := file.Close(); err != nil {
		return written, fmt.Errorf("closing local file: %w", err)
	}

	return written, nil
}

// closeDownload tears down an in-flight copy, preserving the primary error.
func (w *worker) closeDownload(reader io.ReadCloser, file *os.File, written int64, primary error) (int64, error) {
	_ = reader.Close()
	_ = file.Close()

	return written, primary
}

// removePartial deletes a half-written local file so a later run does not
// mistake it for a completed download.
func removePartial(localPath string) {
	// Removal failures leave a truncated file behind; size verification on
	// the next run can still catch it
	_ = os.Remove(localPath)
}

// localSizeOrListed prefers the on-disk size, falling back to the listing.
func localSizeOrListed(local, listed int64) int64 {
	if local > 0 {
		return local
	}

	return listed
}
