package remote

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPDialer establishes FTP sessions to a fixed endpoint.
type FTPDialer struct {
	endpoint *Endpoint
	timeout  time.Duration
}

// NewFTPDialer creates a dialer for the given endpoint. The timeout bounds
// connection establishment and individual control-channel commands.
func NewFTPDialer(endpoint *Endpoint, timeout time.Duration) *FTPDialer {
	return &FTPDialer{
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// Dial connects and logs in, returning a ready session.
func (d *FTPDialer) Dial(ctx context.Context) (Session, error) {
	conn, err := ftp.Dial(d.endpoint.Address(),
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(d.timeout))
	if err != nil {
		return nil, fmt.Errorf("FTP connection to %s failed: %w", d.endpoint.Address(), err)
	}

	password := d.endpoint.Password
	if !d.endpoint.HasPassword && d.endpoint.User == AnonymousUser {
		password = AnonymousUser
	}

	if err := conn.Login(d.endpoint.User, password); err != nil {
		// Best-effort teardown of the half-open connection
		_ = conn.Quit()

		return nil, fmt.Errorf("FTP login as %q failed: %w", d.endpoint.User, err)
	}

	return &ftpSession{conn: conn}, nil
}

// ftpSession wraps a logged-in FTP control connection.
type ftpSession struct {
	conn *ftp.ServerConn
}

// List returns the entries of a remote directory.
func (s *ftpSession) List(dir string) ([]Entry, error) {
	raw, err := s.conn.List(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		if item.Name == "." || item.Name == ".." {
			continue
		}

		entries = append(entries, Entry{
			Name:  item.Name,
			Size:  int64(item.Size), //nolint:gosec // server-reported sizes fit in int64
			IsDir: item.Type == ftp.EntryTypeFolder,
		})
	}

	return entries, nil
}

// Size returns the size of a remote file via the SIZE command.
func (s *ftpSession) Size(path string) (int64, error) {
	size, err := s.conn.FileSize(path)
	if err != nil {
		return 0, fmt.Errorf("%w: SIZE %s: %v", ErrSizeUnknown, path, err) //nolint:errorlint // wrapping ErrSizeUnknown, original is informational
	}

	return size, nil
}

// Retrieve opens a remote file for reading. The session is unusable for
// other commands until the returned reader is closed.
func (s *ftpSession) Retrieve(path string) (io.ReadCloser, error) {
	response, err := s.conn.Retr(path)
	if err != nil {
		return nil, fmt.Errorf("RETR %s: %w", path, err)
	}

	return response, nil
}

// Noop probes the control connection.
func (s *ftpSession) Noop() error {
	if err := s.conn.NoOp(); err != nil {
		return fmt.Errorf("FTP NOOP failed: %w", err)
	}

	return nil
}

// Close sends QUIT and drops the connection.
func (s *ftpSession) Close() error {
	if err := s.conn.Quit(); err != nil {
		return fmt.Errorf("FTP QUIT failed: %w", err)
	}

	return nil
}
