package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
//
// Pattern order matters for overlapping messages: timeout is checked before
// connection so that "connection timed out" lands in CategoryTimeout, and auth
// before connection so that "530 login authentication failed" is not swallowed
// by a generic "connection" substring.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		order: []ErrorCategory{
			CategoryAuth,
			CategoryTimeout,
			CategoryConnection,
			CategoryDiskSpace,
			CategoryPermission,
			CategoryPath,
		},
		patterns: map[ErrorCategory][]string{
			CategoryAuth: {
				"530",
				"login incorrect",
				"authentication failed",
				"unable to authenticate",
				"not logged in",
				"permission denied (publickey",
				"handshake failed",
			},
			CategoryTimeout: {
				"timed out",
				"timeout",
				"deadline exceeded",
			},
			CategoryConnection: {
				"connection refused",
				"connection reset",
				"broken pipe",
				"no route to host",
				"network is unreachable",
				"no such host",
				"eof",
				"421",
			},
			CategoryDiskSpace: {
				"no space left on device",
				"disk full",
				"quota exceeded",
			},
			CategoryPermission: {
				"permission denied",
				"access denied",
				"operation not permitted",
				"550",
			},
			CategoryPath: {
				"no such file or directory",
				"file not found",
				"path does not exist",
			},
		},
	}
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	order    []ErrorCategory
	patterns map[ErrorCategory][]string
}

// Match returns the error category based on pattern matching.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	// Check categories in priority order
	for _, category := range m.order {
		for _, pattern := range m.patterns[category] {
			if strings.Contains(lowerMsg, pattern) {
				return category
			}
		}
	}

	// No match found
	return CategoryUnknown
}
