package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// SFTPDialer establishes SFTP sessions to a fixed endpoint.
type SFTPDialer struct {
	endpoint *Endpoint
	timeout  time.Duration
}

// NewSFTPDialer creates a dialer for the given endpoint. The timeout bounds
// the SSH handshake.
func NewSFTPDialer(endpoint *Endpoint, timeout time.Duration) *SFTPDialer {
	return &SFTPDialer{
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// Dial establishes an SSH connection and opens an SFTP session.
// Authentication tries the URL password first, then the SSH agent, then
// default SSH keys.
func (d *SFTPDialer) Dial(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dial canceled: %w", err)
	}

	authMethods := d.authMethods()
	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no SSH authentication methods available (tried URL password, SSH agent, and default keys)") //nolint:err113,perfsprint // configuration error with guidance
	}

	config := &ssh.ClientConfig{
		User:            d.endpoint.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // TODO: Add proper host key verification
		Timeout:         d.timeout,
	}

	sshClient, err := ssh.Dial("tcp", d.endpoint.Address(), config)
	if err != nil {
		return nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()

		return nil, fmt.Errorf("SFTP session creation failed: %w", err)
	}

	return &sftpSession{
		sshClient:  sshClient,
		sftpClient: sftpClient,
	}, nil
}

// authMethods returns SSH authentication methods in priority order:
// 1. Password from the URL
// 2. SSH agent
// 3. Default SSH keys
func (d *SFTPDialer) authMethods() []ssh.AuthMethod {
	var authMethods []ssh.AuthMethod

	if d.endpoint.HasPassword {
		authMethods = append(authMethods, ssh.Password(d.endpoint.Password))
	}

	if agentAuth := trySSHAgent(); agentAuth != nil {
		authMethods = append(authMethods, agentAuth)
	}

	authMethods = append(authMethods, tryDefaultSSHKeys()...)

	return authMethods
}

// trySSHAgent attempts to connect to the SSH agent.
func trySSHAgent() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}

	agentClient := agent.NewClient(conn)

	return ssh.PublicKeysCallback(agentClient.Signers)
}

// tryDefaultSSHKeys tries to load SSH keys from default locations.
func tryDefaultSSHKeys() []ssh.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	sshDir := filepath.Join(homeDir, ".ssh")

	// Default key files to try (in order)
	keyFiles := []string{
		filepath.Join(sshDir, "id_ed25519"),
		filepath.Join(sshDir, "id_rsa"),
		filepath.Join(sshDir, "id_ecdsa"),
	}

	var authMethods []ssh.AuthMethod

	for _, keyPath := range keyFiles {
		keyData, err := os.ReadFile(keyPath)
		if err != nil {
			continue
		}

		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			// Encrypted keys are skipped (password-protected keys unsupported)
			continue
		}

		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	return authMethods
}

// sftpSession holds an active SSH connection with an SFTP subsystem.
type sftpSession struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

// List returns the entries of a remote directory.
func (s *sftpSession) List(dir string) ([]Entry, error) {
	infos, err := s.sftpClient.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name:  info.Name(),
			Size:  info.Size(),
			IsDir: info.IsDir(),
		})
	}

	return entries, nil
}

// Size returns the size of a remote file.
func (s *sftpSession) Size(path string) (int64, error) {
	info, err := s.sftpClient.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %v", ErrSizeUnknown, path, err) //nolint:errorlint // wrapping ErrSizeUnknown, original is informational
	}

	return info.Size(), nil
}

// Retrieve opens a remote file for reading.
func (s *sftpSession) Retrieve(path string) (io.ReadCloser, error) {
	file, err := s.sftpClient.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return file, nil
}

// Noop probes the connection with a cheap round trip.
func (s *sftpSession) Noop() error {
	if _, err := s.sftpClient.Getwd(); err != nil {
		return fmt.Errorf("SFTP liveness probe failed: %w", err)
	}

	return nil
}

// Close closes the SFTP session and SSH connection, reporting the first error.
func (s *sftpSession) Close() error {
	var firstErr error

	if err := s.sftpClient.Close(); err != nil {
		firstErr = err
	}

	if err := s.sshClient.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
