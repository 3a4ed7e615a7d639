package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// MockServer is an in-memory remote server for testing. It plays the role of
// a Dialer, producing MockSessions that all read the same file tree.
type MockServer struct {
	mu    sync.RWMutex
	files map[string][]byte // remote path -> content
	dirs  map[string]bool

	// DialErr, when set, makes every Dial fail.
	DialErr error
	// FailFirstDials makes the first N dials fail before succeeding.
	FailFirstDials int
	// FailFirstRetrieves makes the first N Retrieve calls, across all
	// sessions, fail before succeeding.
	FailFirstRetrieves int
	// ReadErrAfter, when > 0, makes every retrieved reader fail after
	// that many bytes.
	ReadErrAfter int

	dialCount     int
	retrieveCount int
	sessions      []*MockSession
}

// NewMockServer creates an empty in-memory server.
func NewMockServer() *MockServer {
	return &MockServer{
		files: make(map[string][]byte),
		dirs:  map[string]bool{"/": true},
	}
}

// AddFile registers a remote file and its parent directories.
func (m *MockServer) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = content

	dir := parentDir(path)
	for dir != "/" && dir != "." && dir != "" {
		m.dirs[dir] = true
		dir = parentDir(dir)
	}
}

// AddDir registers an empty remote directory.
func (m *MockServer) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirs[path] = true
}

// Dial returns a new session onto the server's file tree.
func (m *MockServer) Dial(_ context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dialCount++

	if m.DialErr != nil {
		return nil, m.DialErr
	}

	if m.dialCount <= m.FailFirstDials {
		return nil, fmt.Errorf("simulated dial failure %d", m.dialCount) //nolint:err113 // test helper
	}

	session := &MockSession{server: m}
	m.sessions = append(m.sessions, session)

	return session, nil
}

// DialCount returns how many times Dial was called, including failures.
func (m *MockServer) DialCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.dialCount
}

// OpenSessions returns how many dialed sessions have not been closed.
func (m *MockServer) OpenSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	open := 0

	for _, session := range m.sessions {
		if !session.Closed() {
			open++
		}
	}

	return open
}

// MockSession is a Session over a MockServer's file tree. Operation counts
// and failure injections let tests script exact failure sequences.
type MockSession struct {
	server *MockServer

	mu     sync.Mutex
	closed bool

	// NoopErr, when set, makes the liveness probe fail.
	NoopErr error

	NoopCalls     int
	ListCalls     int
	SizeCalls     int
	RetrieveCalls int
}

// List returns the entries of a directory, sorted by name.
func (s *MockSession) List(dir string) ([]Entry, error) {
	s.mu.Lock()
	s.ListCalls++
	s.mu.Unlock()

	if s.isClosed() {
		return nil, os.ErrClosed
	}

	s.server.mu.RLock()
	defer s.server.mu.RUnlock()

	if !s.server.dirs[dir] {
		return nil, fmt.Errorf("listing %s: no such file or directory", dir) //nolint:err113 // test helper
	}

	var entries []Entry

	for path, content := range s.server.files {
		if parentDir(path) == dir {
			entries = append(entries, Entry{
				Name: baseName(path),
				Size: int64(len(content)),
			})
		}
	}

	for path := range s.server.dirs {
		if path != dir && parentDir(path) == dir {
			entries = append(entries, Entry{Name: baseName(path), IsDir: true})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

// Size returns the size of a remote file.
func (s *MockSession) Size(path string) (int64, error) {
	s.mu.Lock()
	s.SizeCalls++
	s.mu.Unlock()

	if s.isClosed() {
		return 0, os.ErrClosed
	}

	s.server.mu.RLock()
	defer s.server.mu.RUnlock()

	content, ok := s.server.files[path]
	if !ok {
		return 0, fmt.Errorf("%w: %s: no such file", ErrSizeUnknown, path)
	}

	return int64(len(content)), nil
}

// Retrieve opens a remote file for reading, honoring scripted failures.
func (s *MockSession) Retrieve(path string) (io.ReadCloser, error) {
	s.mu.Lock()
	s.RetrieveCalls++
	s.mu.Unlock()

	if s.isClosed() {
		return nil, os.ErrClosed
	}

	s.server.mu.Lock()
	s.server.retrieveCount++
	failThis := s.server.retrieveCount <= s.server.FailFirstRetrieves
	readErrAfter := s.server.ReadErrAfter
	content, ok := s.server.files[path]
	s.server.mu.Unlock()

	if failThis {
		return nil, fmt.Errorf("RETR %s: 421 simulated transfer failure", path) //nolint:err113 // test helper
	}

	if !ok {
		return nil, fmt.Errorf("RETR %s: no such file or directory", path) //nolint:err113 // test helper
	}

	return &mockReader{
		reader:       bytes.NewReader(content),
		failAfter:    readErrAfter,
		totalContent: len(content),
	}, nil
}

// Noop returns the scripted probe error, if any.
func (s *MockSession) Noop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.NoopCalls++

	if s.closed {
		return os.ErrClosed
	}

	return s.NoopErr
}

// Close marks the session closed. Idempotent.
func (s *MockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

// Closed reports whether Close was called.
func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

func (s *MockSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// mockReader streams content, optionally failing mid-stream.
type mockReader struct {
	reader       *bytes.Reader
	failAfter    int
	totalContent int
	read         int
}

func (r *mockReader) Read(p []byte) (int, error) {
	if r.failAfter > 0 && r.read < r.totalContent {
		if r.read >= r.failAfter {
			return 0, io.ErrUnexpectedEOF
		}

		// Cap the read so the failure point is hit regardless of the
		// caller's buffer size
		if remaining := r.failAfter - r.read; len(p) > remaining {
			p = p[:remaining]
		}
	}

	n, err := r.reader.Read(p)
	r.read += n

	return n, err //nolint:wrapcheck // passthrough reader for tests
}

func (r *mockReader) Close() error {
	return nil
}

func parentDir(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}

	return path[:idx]
}

func baseName(path string) string {
	idx := strings.LastIndex(path, "/")

	return path[idx+1:]
}
