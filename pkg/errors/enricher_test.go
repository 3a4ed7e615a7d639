package errors_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/xinlongliu0307/cryo2ice-snow-thickness-antarctic-2020-2025/pkg/errors"
)

func TestEnricher_EnrichNilReturnsNil(t *testing.T) {
	t.Parallel()

	enricher := pkgerrors.NewEnricher()

	if enriched := enricher.Enrich(nil, "/path"); enriched != nil {
		t.Errorf("expected nil for nil input, got %v", enriched)
	}
}

func TestEnricher_EnrichAlreadyActionableError(t *testing.T) {
	t.Parallel()

	enricher := pkgerrors.NewEnricher()
	originalActionable := pkgerrors.NewActionableError(
		"530 Login incorrect.",
		pkgerrors.CategoryAuth,
		[]string{"existing suggestion"},
		"SIR_SAR_L2/2020/08",
	)

	enriched := enricher.Enrich(originalActionable, "some/other/path")

	// Should return the same error unchanged
	var actionableErr pkgerrors.ActionableError
	if !errors.As(enriched, &actionableErr) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionableErr != originalActionable {
		t.Error("expected same ActionableError instance when enriching ActionableError")
	}
}

func TestEnricher_EnrichAuthError(t *testing.T) {
	t.Parallel()

	enricher := pkgerrors.NewEnricher()
	originalErr := errors.New("530 Login incorrect.")

	enriched := enricher.Enrich(originalErr, "SIR_SAR_L2/2020/08/CS_file.nc")

	var actionableErr pkgerrors.ActionableError
	if !errors.As(enriched, &actionableErr) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionableErr.Category() != pkgerrors.CategoryAuth {
		t.Errorf("expected %q, got %q", pkgerrors.CategoryAuth, actionableErr.Category())
	}

	if actionableErr.AffectedPath() != "SIR_SAR_L2/2020/08/CS_file.nc" {
		t.Errorf("unexpected affected path %q", actionableErr.AffectedPath())
	}

	if len(actionableErr.Suggestions()) == 0 {
		t.Error("expected suggestions on enriched error")
	}

	if actionableErr.Error() != originalErr.Error() {
		t.Errorf("expected original message preserved, got %q", actionableErr.Error())
	}
}

func TestEnricher_ExtractsPathFromMessage(t *testing.T) {
	t.Parallel()

	enricher := pkgerrors.NewEnricher()
	originalErr := errors.New("open /data/antarctic/CS_file.nc: permission denied")

	enriched := enricher.Enrich(originalErr, "")

	var actionableErr pkgerrors.ActionableError
	if !errors.As(enriched, &actionableErr) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionableErr.AffectedPath() != "/data/antarctic/CS_file.nc" {
		t.Errorf("expected path extracted from message, got %q", actionableErr.AffectedPath())
	}
}

func TestEnricher_CallerPathWinsOverExtracted(t *testing.T) {
	t.Parallel()

	enricher := pkgerrors.NewEnricher()
	originalErr := errors.New("open /tmp/scratch: i/o timeout")

	enriched := enricher.Enrich(originalErr, "SIR_SAR_L2/2021/01/CS_file.nc")

	var actionableErr pkgerrors.ActionableError
	if !errors.As(enriched, &actionableErr) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionableErr.AffectedPath() != "SIR_SAR_L2/2021/01/CS_file.nc" {
		t.Errorf("expected caller-provided path, got %q", actionableErr.AffectedPath())
	}
}

func TestEnricher_UnmatchedErrorGetsUnknownCategory(t *testing.T) {
	t.Parallel()

	enricher := pkgerrors.NewEnricher()
	enriched := enricher.Enrich(errors.New("weird transient hiccup"), "")

	var actionableErr pkgerrors.ActionableError
	if !errors.As(enriched, &actionableErr) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionableErr.Category() != pkgerrors.CategoryUnknown {
		t.Errorf("expected %q, got %q", pkgerrors.CategoryUnknown, actionableErr.Category())
	}

	if len(actionableErr.Suggestions()) == 0 {
		t.Error("expected fallback suggestions")
	}
}
