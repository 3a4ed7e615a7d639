// Package errors provides actionable error handling for transfer failures.
//
// This package enriches standard Go errors with categorization and actionable
// suggestions so that a partially failed run ends with guidance rather than a
// bare message. It detects the common failure classes of remote file retrieval
// (authentication, connectivity, timeout, local disk) and generates
// category-specific advice.
//
// Basic Usage:
//
//	enricher := errors.NewEnricher()
//	if err != nil {
//	    actionableErr := enricher.Enrich(err, "SIR_SAR_L2/2020/08/CS_file.nc")
//	    fmt.Println(actionableErr.Error())
//	    fmt.Println(errors.FormatSuggestions(actionableErr))
//	}
//
// Categories are for end-of-run reporting only. Retry policy does not branch
// on category: an authentication rejection and a dropped connection are retried
// identically because the server rarely lets us tell them apart without
// protocol-specific reply parsing.
package errors

import "strings"

// Exported constants.
const (
	CategoryAuth       ErrorCategory = "auth"
	CategoryConnection ErrorCategory = "connection"
	CategoryDiskSpace  ErrorCategory = "disk_space"
	CategoryPath       ErrorCategory = "path"
	CategoryPermission ErrorCategory = "permission"
	CategoryTimeout    ErrorCategory = "timeout"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ActionableError represents an error with actionable suggestions for the user.
type ActionableError interface {
	error
	OriginalError() string
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
}

// ErrorCategory represents the type of error that occurred.
type ErrorCategory string

// NewActionableError creates a new ActionableError with the given details.
func NewActionableError(
	originalError string,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		originalError: originalError,
		category:      category,
		suggestions:   suggestions,
		affectedPath:  affectedPath,
	}
}

// FormatSuggestions formats the suggestions from an ActionableError as a bulleted list
// for display. Returns empty string if the error is nil, not actionable, or has no
// suggestions.
func FormatSuggestions(err error) string {
	if err == nil {
		return ""
	}

	actionable, ok := err.(ActionableError)
	if !ok {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	// Format as bulleted list with two-space indent
	var builder strings.Builder
	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

// actionableError is the concrete implementation of ActionableError.
type actionableError struct {
	originalError string
	category      ErrorCategory
	suggestions   []string
	affectedPath  string
}

// AffectedPath returns the remote or local path affected by this error.
func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

// Category returns the error category.
func (e *actionableError) Category() ErrorCategory {
	return e.category
}

// Error implements the error interface.
func (e *actionableError) Error() string {
	return e.originalError
}

// OriginalError returns the original error message.
func (e *actionableError) OriginalError() string {
	return e.originalError
}

// Suggestions returns the list of actionable suggestions.
func (e *actionableError) Suggestions() []string {
	return e.suggestions
}
