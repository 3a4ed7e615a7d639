package errors

import "strings"

// Enricher enriches errors with categorization and actionable suggestions.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// NewEnricher creates a new Enricher with default matcher and suggestion generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// enricher is the concrete implementation of Enricher.
type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich converts a standard error into an ActionableError with category and
// suggestions. Returns nil for nil input. Errors that are already actionable
// pass through unchanged so double enrichment is safe.
func (e *enricher) Enrich(err error, affectedPath string) error {
	if err == nil {
		return nil
	}

	if actionable, ok := err.(ActionableError); ok {
		return actionable
	}

	errorMsg := err.Error()
	category := e.matcher.Match(errorMsg)

	// Fall back to path extraction when the caller has no better context
	if affectedPath == "" {
		affectedPath = extractPath(errorMsg)
	}

	suggestions := e.generator.Generate(category, affectedPath)

	return NewActionableError(errorMsg, category, suggestions, affectedPath)
}

// extractPath pulls a path-looking token out of an error message. Go runtime
// errors often embed the path, e.g. "open /data/file.nc: permission denied".
func extractPath(errorMsg string) string {
	for _, token := range strings.Fields(errorMsg) {
		token = strings.TrimSuffix(token, ":")
		if strings.HasPrefix(token, "/") && len(token) > 1 {
			return token
		}
	}

	return ""
}
