package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

// suggestionGenerator is the concrete implementation of SuggestionGenerator.
type suggestionGenerator struct{}

// Generate returns actionable suggestions based on the error category and affected path.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryAuth:
		return g.generateAuthSuggestions(affectedPath)
	case CategoryConnection:
		return g.generateConnectionSuggestions(affectedPath)
	case CategoryTimeout:
		return g.generateTimeoutSuggestions(affectedPath)
	case CategoryDiskSpace:
		return g.generateDiskSpaceSuggestions(affectedPath)
	case CategoryPermission:
		return g.generatePermissionSuggestions(affectedPath)
	case CategoryPath:
		return g.generatePathSuggestions(affectedPath)
	case CategoryUnknown:
		return g.generateUnknownSuggestions(affectedPath)
	default:
		return g.generateUnknownSuggestions(affectedPath)
	}
}

func (g *suggestionGenerator) generateAuthSuggestions(_ string) []string {
	return []string{
		"Verify the username and password are correct",
		"Check whether the account requires registration or renewal on the data portal",
		"Pass credentials in the URL or set the password environment variable",
		"Some servers lock accounts after repeated failures - wait before retrying",
	}
}

func (g *suggestionGenerator) generateConnectionSuggestions(_ string) []string {
	return []string{
		"Check network connectivity to the server",
		"Verify the hostname and port are correct",
		"The server may limit simultaneous connections - reduce the session capacity",
		"Try again later - the server may be under maintenance",
	}
}

func (g *suggestionGenerator) generateTimeoutSuggestions(path string) []string {
	suggestions := []string{
		"Increase the transfer timeout for large files or slow links",
		"Reduce the number of concurrent transfers to free bandwidth per file",
	}

	if path != "" {
		suggestions = append(suggestions, "Retry the affected file on its own: "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) generateDiskSpaceSuggestions(path string) []string {
	suggestions := []string{
		"Free up space on the output device",
		"Check available space with 'df -h'",
		"Point the output directory at a filesystem with more room",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify disk usage for the filesystem containing "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) generatePermissionSuggestions(path string) []string {
	suggestions := []string{
		"Ensure the account has read access to the remote dataset",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check local permissions with 'ls -la %s'", path))
	} else {
		suggestions = append(suggestions, "Check local permissions with 'ls -la' on the output directory")
	}

	suggestions = append(suggestions, "Some datasets require explicit access approval from the provider")

	return suggestions
}

func (g *suggestionGenerator) generatePathSuggestions(path string) []string {
	suggestions := []string{
		"Verify the remote base directory and date range are correct",
	}

	if path != "" {
		suggestions = append(suggestions, "Check if the path exists on the server: "+path)
	}

	suggestions = append(suggestions, "Month folders may be absent when no data was published for that period")

	return suggestions
}

func (g *suggestionGenerator) generateUnknownSuggestions(path string) []string {
	suggestions := []string{
		"Check the error message for more details",
		"Verify network connectivity and credentials",
		"Ensure sufficient disk space is available",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
