package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/internal/fetchengine"
	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/formatters"
)

// PlainReporter is a line-oriented event emitter for non-interactive runs
// (piped output, CI, --plain). It implements fetchengine.EventEmitter.
type PlainReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainReporter creates a reporter writing to out.
func NewPlainReporter(out io.Writer) *PlainReporter {
	return &PlainReporter{out: out}
}

// Emit implements fetchengine.EventEmitter
//
//nolint:cyclop // Event dispatch is clearest as a single switch
func (r *PlainReporter) Emit(event fetchengine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event := event.(type) {
	case fetchengine.DiscoveryStarted:
		r.printf("scanning %d month folders", event.Months)

	case fetchengine.MonthListed:
		r.printf("  %s: %d files", event.Month, event.Files)

	case fetchengine.MonthMissing:
		r.printf("  %s: not present on server", event.Month)

	case fetchengine.DiscoveryComplete:
		r.printf("planned %d files, %s", event.Files, formatters.FormatBytes(event.Bytes))

	case fetchengine.RunStarted:
		r.printf("starting transfer of %d files (%s)",
			event.TotalFiles, formatters.FormatBytes(event.TotalBytes))

	case fetchengine.FileSkipped:
		r.printf("skip   %s (already present)", event.Path)

	case fetchengine.FileProgress:
		r.printf("...    %s %s / %s", event.Path,
			formatters.FormatBytes(event.Bytes), formatters.FormatBytes(event.Total))

	case fetchengine.FileVetoed:
		r.printf("veto   %s (memory at %.1f%%)", event.Path, event.UsedPercent)

	case fetchengine.RetryScheduled:
		r.printf("retry  %s attempt %d in %s: %v", event.Path, event.Attempt, event.Delay, event.Err)

	case fetchengine.FileComplete:
		r.printf("done   %s (%s in %s)",
			event.Path, formatters.FormatBytes(event.Bytes), formatters.FormatDuration(event.Elapsed))

	case fetchengine.FileFailed:
		r.printf("failed %s after %d attempts: %v", event.Path, event.Attempts, event.Err)

	case fetchengine.StatsSnapshot:
		stats := event.Stats
		r.printf("progress: %d/%d files, %s transferred, %d failed",
			stats.Processed(), stats.TotalFiles,
			formatters.FormatBytes(stats.TransferredBytes), stats.Failed)

	case fetchengine.RunComplete:
		stats := event.Stats
		r.printf("run complete in %s: %d completed, %d skipped, %d failed (%d vetoed), %d retries, %s transferred",
			formatters.FormatDuration(stats.Elapsed()),
			stats.Completed, stats.Skipped, stats.Failed, stats.Vetoed, stats.Retries,
			formatters.FormatBytes(stats.TransferredBytes))
	}
}

func (r *PlainReporter) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}
