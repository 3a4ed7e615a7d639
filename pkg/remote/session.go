// Package remote provides protocol-neutral access to file servers.
//
// A Session is one authenticated connection to a server, offering the small
// set of operations a retrieval run needs: directory listing, size lookup,
// file download, and a liveness probe. Dialers produce sessions for a given
// endpoint; the Pool recycles them across transfers so a run never holds more
// simultaneous connections than the server allows.
//
// Two backends are provided: ftp:// (plain FTP, the native protocol of most
// science data archives) and sftp:// (SFTP over SSH).
package remote

import (
	"context"
	"errors"
	"io"
)

// Exported errors.
var (
	// ErrPoolClosed is returned by pool operations after Shutdown.
	ErrPoolClosed = errors.New("session pool is closed")

	// ErrSizeUnknown is returned by Size when the server cannot report a
	// size for the path.
	ErrSizeUnknown = errors.New("remote size unknown")
)

// Entry describes one item in a remote directory listing.
type Entry struct {
	Name  string
	Size  int64
	IsDir bool
}

// Session is a single authenticated connection to a remote server.
//
// A session supports one operation at a time: the FTP data-connection model
// forbids overlapping commands, so callers must not share a session between
// goroutines. The Pool hands each session to exactly one worker at a time.
type Session interface {
	// List returns the entries of a remote directory.
	List(dir string) ([]Entry, error)

	// Size returns the size in bytes of a remote file. Returns
	// ErrSizeUnknown (possibly wrapped) when the server has no answer.
	Size(path string) (int64, error)

	// Retrieve opens a remote file for reading. The caller must close the
	// returned reader before issuing further operations on this session.
	Retrieve(path string) (io.ReadCloser, error)

	// Noop probes whether the connection is still alive. A non-nil error
	// means the session must be discarded.
	Noop() error

	// Close releases the connection. Best effort: the session is unusable
	// afterward regardless of the returned error.
	Close() error
}

// Dialer establishes new sessions to a fixed endpoint.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}
