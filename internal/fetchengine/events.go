package fetchengine

import "time"

// Event is the interface implemented by all fetch engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// Discovery phase events

// DiscoveryStarted is emitted when month-folder enumeration begins.
type DiscoveryStarted struct {
	Months int
}

func (DiscoveryStarted) isEvent() {}

// MonthListed is emitted after each month folder is listed.
type MonthListed struct {
	Month string // "YYYY/MM"
	Files int    // matching files found in the folder
}

func (MonthListed) isEvent() {}

// MonthMissing is emitted when a month folder cannot be listed. Missing
// months are expected when no data was published for the period.
type MonthMissing struct {
	Month string
	Err   error
}

func (MonthMissing) isEvent() {}

// DiscoveryComplete is emitted with the final download plan size.
type DiscoveryComplete struct {
	Files int
	Bytes int64
}

func (DiscoveryComplete) isEvent() {}

// Run lifecycle events

// RunStarted is emitted once when the transfer phase begins.
type RunStarted struct {
	TotalFiles int
	TotalBytes int64 // sum of listed sizes, 0 when sizes are unknown
}

func (RunStarted) isEvent() {}

// RunComplete is emitted once when every file has a terminal outcome.
type RunComplete struct {
	Stats Snapshot
}

func (RunComplete) isEvent() {}

// StatsSnapshot is emitted periodically as files reach terminal outcomes.
type StatsSnapshot struct {
	Stats Snapshot
}

func (StatsSnapshot) isEvent() {}

// Per-file events

// FileStarted is emitted when a transfer attempt begins.
type FileStarted struct {
	Path string
	Size int64
}

func (FileStarted) isEvent() {}

// FileProgress is emitted periodically while a file streams down.
type FileProgress struct {
	Path  string
	Bytes int64
	Total int64 // 0 when the size is unknown
}

func (FileProgress) isEvent() {}

// FileSkipped is emitted when a file already exists locally.
type FileSkipped struct {
	Path string
	Size int64
}

func (FileSkipped) isEvent() {}

// FileVetoed is emitted when the admission guard blocks a file.
type FileVetoed struct {
	Path        string
	UsedPercent float64
}

func (FileVetoed) isEvent() {}

// RetryScheduled is emitted when an attempt fails with retries remaining.
type RetryScheduled struct {
	Path    string
	Attempt int // the attempt that just failed, 1-based
	Delay   time.Duration
	Err     error
}

func (RetryScheduled) isEvent() {}

// FileComplete is emitted when a file finishes downloading.
type FileComplete struct {
	Path    string
	Bytes   int64
	Elapsed time.Duration
}

func (FileComplete) isEvent() {}

// FileFailed is emitted when a file exhausts its retry budget.
type FileFailed struct {
	Path     string
	Attempts int
	Err      error
}

func (FileFailed) isEvent() {}
