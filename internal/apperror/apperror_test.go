package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// These tests verify the error chain behaves correctly with errors.Is and
// errors.As — the whole error-mapping strategy in the handler layer depends
// on Unwrap() working through wrapped errors.

func TestNotFound_MatchesSentinel(t *testing.T) {
	err := NotFound("task", "abc123")

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFound() should match ErrNotFound via errors.Is")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("NotFound() should not match ErrValidation")
	}
}

func TestValidationFailed_CarriesField(t *testing.T) {
	err := ValidationFailed("languageId", "language ID is required")

	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationFailed() should match ErrValidation")
	}
	if err.Field != "languageId" {
		t.Errorf("Field = %q, want %q", err.Field, "languageId")
	}
}

func TestLocked_CarriesDetail(t *testing.T) {
	detail := map[string]int{"recordingsNeeded": 1}
	err := Locked("complete 1 more recording to unlock the next task", detail)

	if !errors.Is(err, ErrLocked) {
		t.Error("Locked() should match ErrLocked")
	}
	if err.Detail == nil {
		t.Error("Locked() should carry its detail payload")
	}
}

func TestWrappedError_SurvivesChain(t *testing.T) {
	// Service layers wrap with %w — the sentinel must still be findable.
	inner := Locked("locked", nil)
	wrapped := fmt.Errorf("generating task: %w", inner)

	if !errors.Is(wrapped, ErrLocked) {
		t.Error("wrapped error should still match ErrLocked")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract *AppError from the chain")
	}
	if appErr.Message != "locked" {
		t.Errorf("Message = %q, want %q", appErr.Message, "locked")
	}
}

func TestAlreadyExists_MessageIsVerbatim(t *testing.T) {
	err := AlreadyExists("an account with this email already exists")
	if err.Error() != "an account with this email already exists" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("AlreadyExists() should match ErrConflict")
	}
}

func TestForbidden_Message(t *testing.T) {
	err := Forbidden("you do not own this recording")
	if err.Error() != "you do not own this recording" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrForbidden) {
		t.Error("Forbidden() should match ErrForbidden")
	}
}
