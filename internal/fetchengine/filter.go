package fetchengine

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFilter decides which discovered files are worth downloading.
type FileFilter interface {
	// ShouldInclude returns true if the file with the given name should be downloaded
	ShouldInclude(name string) bool
}

// GlobFilter implements FileFilter using glob patterns
type GlobFilter struct {
	normalizedPattern string
	isEmpty           bool
}

// NewGlobFilter creates a new GlobFilter with the given pattern
// Empty pattern matches all files
func NewGlobFilter(pattern string) *GlobFilter {
	normalized := strings.ToLower(pattern)

	return &GlobFilter{
		normalizedPattern: normalized,
		isEmpty:           pattern == "",
	}
}

// ShouldInclude returns true if the file name matches the glob pattern
// Case-insensitive matching
func (f *GlobFilter) ShouldInclude(name string) bool {
	// Empty pattern matches all files
	if f.isEmpty {
		return true
	}

	normalizedName := strings.ToLower(name)

	matched, err := doublestar.Match(f.normalizedPattern, normalizedName)
	if err != nil {
		// If pattern is invalid, don't match
		return false
	}

	return matched
}

// NewPatternFilter selects the cheapest filter for a pattern: a plain
// "*.ext" pattern becomes a suffix comparison, anything else goes through
// glob matching.
func NewPatternFilter(pattern string) FileFilter {
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok && !strings.ContainsAny(suffix, "*?[{") {
		return NewSuffixFilter("." + suffix)
	}

	return NewGlobFilter(pattern)
}

// SuffixFilter implements FileFilter by extension, e.g. ".nc" for netCDF
// granules.
type SuffixFilter struct {
	suffix string
}

// NewSuffixFilter creates a filter matching names with the given suffix,
// case-insensitively.
func NewSuffixFilter(suffix string) *SuffixFilter {
	return &SuffixFilter{suffix: strings.ToLower(suffix)}
}

// ShouldInclude returns true if the name ends with the configured suffix.
func (f *SuffixFilter) ShouldInclude(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), f.suffix)
}
