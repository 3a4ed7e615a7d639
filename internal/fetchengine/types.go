// Package fetchengine downloads a planned set of remote files with bounded
// concurrency, skip detection, memory-pressure admission, and per-file retry.
package fetchengine

import "fmt"

// RemotePath identifies one file to retrieve, with the size reported by the
// directory listing that discovered it.
type RemotePath struct {
	Dir    string // remote directory containing the file
	Name   string // file name within Dir
	Subdir string // local subdirectory to mirror into, e.g. "2020/08"
	Size   int64  // size from the discovery listing, 0 if unknown
}

// Full returns the complete remote path.
func (p RemotePath) Full() string {
	if p.Dir == "" || p.Dir == "/" {
		return "/" + p.Name
	}

	return p.Dir + "/" + p.Name
}

// Outcome is the terminal classification of one file.
type Outcome int

// Terminal outcomes for a file.
const (
	OutcomeCompleted Outcome = iota
	OutcomeSkipped
	OutcomeFailed
	OutcomeVetoed
)

// String returns the outcome name for logs and summaries.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeVetoed:
		return "vetoed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// TransferResult records how one file ended up.
type TransferResult struct {
	Path     RemotePath
	Outcome  Outcome
	Bytes    int64 // bytes credited for this file (downloaded or skipped)
	Attempts int   // transfer attempts made, 0 for skips and vetoes
	Err      error // terminal error for failed and vetoed files
}

// FileError pairs a remote path with its terminal error for the summary.
type FileError struct {
	Path string
	Err  error
}
