package errors_test

import (
	"strings"
	"testing"

	"github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/errors"
)

func TestSuggestionGenerator_AllCategoriesProduceSuggestions(t *testing.T) {
	t.Parallel()

	categories := []errors.ErrorCategory{
		errors.CategoryAuth,
		errors.CategoryConnection,
		errors.CategoryTimeout,
		errors.CategoryDiskSpace,
		errors.CategoryPermission,
		errors.CategoryPath,
		errors.CategoryUnknown,
	}

	gen := errors.NewSuggestionGenerator()

	for _, category := range categories {
		t.Run(string(category), func(t *testing.T) {
			t.Parallel()

			suggestions := gen.Generate(category, "/some/path")
			if len(suggestions) == 0 {
				t.Errorf("expected suggestions for category %q, got none", category)
			}
		})
	}
}

func TestSuggestionGenerator_AuthMentionsCredentials(t *testing.T) {
	t.Parallel()

	gen := errors.NewSuggestionGenerator()
	suggestions := gen.Generate(errors.CategoryAuth, "")

	if !anyContains(suggestions, "password") {
		t.Errorf("expected credential advice for auth errors, got: %v", suggestions)
	}
}

func TestSuggestionGenerator_ConnectionMentionsCapacity(t *testing.T) {
	t.Parallel()

	gen := errors.NewSuggestionGenerator()
	suggestions := gen.Generate(errors.CategoryConnection, "")

	// Servers commonly enforce simultaneous-connection limits
	if !anyContains(suggestions, "capacity") && !anyContains(suggestions, "connection") {
		t.Errorf("expected connection-limit advice, got: %v", suggestions)
	}
}

func TestSuggestionGenerator_TimeoutIncludesAffectedPath(t *testing.T) {
	t.Parallel()

	gen := errors.NewSuggestionGenerator()

	withPath := gen.Generate(errors.CategoryTimeout, "SIR_SAR_L2/2020/08/CS_file.nc")
	if !anyContains(withPath, "CS_file.nc") {
		t.Errorf("expected path in timeout suggestions, got: %v", withPath)
	}

	withoutPath := gen.Generate(errors.CategoryTimeout, "")
	if anyContains(withoutPath, "CS_file.nc") {
		t.Errorf("did not expect path in suggestions: %v", withoutPath)
	}
}

func TestSuggestionGenerator_DiskSpaceMentionsFreeingSpace(t *testing.T) {
	t.Parallel()

	gen := errors.NewSuggestionGenerator()
	suggestions := gen.Generate(errors.CategoryDiskSpace, "/data/out")

	if !anyContains(suggestions, "space") {
		t.Errorf("expected disk space advice, got: %v", suggestions)
	}
}

func TestSuggestionGenerator_UnknownCategoryFallsBack(t *testing.T) {
	t.Parallel()

	gen := errors.NewSuggestionGenerator()
	suggestions := gen.Generate(errors.ErrorCategory("never-heard-of-it"), "")

	if len(suggestions) == 0 {
		t.Error("expected fallback suggestions for unrecognized category")
	}
}

func anyContains(suggestions []string, substring string) bool {
	for _, suggestion := range suggestions {
		if strings.Contains(strings.ToLower(suggestion), strings.ToLower(substring)) {
			return true
		}
	}

	return false
}
