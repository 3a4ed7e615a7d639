package errors_test

import (
	"testing"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/errors"
)

func TestPatternMatcher_CaseInsensitive(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		expected errors.ErrorCategory
	}{
		{
			name:     "uppercase login incorrect",
			errorMsg: "530 LOGIN INCORRECT",
			expected: errors.CategoryAuth,
		},
		{
			name:     "mixed case no space left",
			errorMsg: "No Space Left On Device",
			expected: errors.CategoryDiskSpace,
		},
	}

	matcher := errors.NewPatternMatcher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			category := matcher.Match(testCase.errorMsg)
			if category != testCase.expected {
				t.Errorf("expected category %q, got %q for error: %q",
					testCase.expected, category, testCase.errorMsg)
			}
		})
	}
}

func TestPatternMatcher_MatchAuthErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		expected errors.ErrorCategory
	}{
		{
			name:     "ftp 530 reply",
			errorMsg: "530 Login incorrect.",
			expected: errors.CategoryAuth,
		},
		{
			name:     "ssh handshake",
			errorMsg: "ssh: handshake failed: ssh: unable to authenticate",
			expected: errors.CategoryAuth,
		},
		{
			name:     "not logged in",
			errorMsg: "530 Not logged in",
			expected: errors.CategoryAuth,
		},
	}

	matcher := errors.NewPatternMatcher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			category := matcher.Match(testCase.errorMsg)
			if category != testCase.expected {
				t.Errorf("expected category %q, got %q for error: %q",
					testCase.expected, category, testCase.errorMsg)
			}
		})
	}
}

func TestPatternMatcher_MatchConnectionErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		expected errors.ErrorCategory
	}{
		{
			name:     "connection refused",
			errorMsg: "dial tcp 131.176.196.2:21: connect: connection refused",
			expected: errors.CategoryConnection,
		},
		{
			name:     "connection reset",
			errorMsg: "read tcp: connection reset by peer",
			expected: errors.CategoryConnection,
		},
		{
			name:     "unknown host",
			errorMsg: "dial tcp: lookup science-pds.cryosat.esa.int: no such host",
			expected: errors.CategoryConnection,
		},
		{
			name:     "ftp 421 reply",
			errorMsg: "421 Too many connections from this IP",
			expected: errors.CategoryConnection,
		},
	}

	matcher := errors.NewPatternMatcher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			category := matcher.Match(testCase.errorMsg)
			if category != testCase.expected {
				t.Errorf("expected category %q, got %q for error: %q",
					testCase.expected, category, testCase.errorMsg)
			}
		})
	}
}

func TestPatternMatcher_TimeoutBeforeConnection(t *testing.T) {
	t.Parallel()

	// A timed-out dial mentions both timeout and connection wording.
	// Timeout must win so the user gets timeout-specific advice.
	matcher := errors.NewPatternMatcher()

	category := matcher.Match("dial tcp 131.176.196.2:21: i/o timeout")
	if category != errors.CategoryTimeout {
		t.Errorf("expected %q, got %q", errors.CategoryTimeout, category)
	}

	category = matcher.Match("context deadline exceeded")
	if category != errors.CategoryTimeout {
		t.Errorf("expected %q, got %q", errors.CategoryTimeout, category)
	}
}

func TestPatternMatcher_MatchLocalErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		expected errors.ErrorCategory
	}{
		{
			name:     "disk full",
			errorMsg: "write /data/file.nc: no space left on device",
			expected: errors.CategoryDiskSpace,
		},
		{
			name:     "permission denied",
			errorMsg: "open /data/file.nc: permission denied",
			expected: errors.CategoryPermission,
		},
		{
			name:     "missing path",
			errorMsg: "stat /data: no such file or directory",
			expected: errors.CategoryPath,
		},
	}

	matcher := errors.NewPatternMatcher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			category := matcher.Match(testCase.errorMsg)
			if category != testCase.expected {
				t.Errorf("expected category %q, got %q for error: %q",
					testCase.expected, category, testCase.errorMsg)
			}
		})
	}
}

func TestPatternMatcher_NoMatchReturnsUnknown(t *testing.T) {
	t.Parallel()

	matcher := errors.NewPatternMatcher()

	category := matcher.Match("something completely unexpected happened")
	if category != errors.CategoryUnknown {
		t.Errorf("expected %q, got %q", errors.CategoryUnknown, category)
	}
}
