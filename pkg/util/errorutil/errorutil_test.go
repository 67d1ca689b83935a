package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	orig := NewAlreadyCompleted("t1")
	mapped := ToDomainError(orig)
	if mapped.Code != "ALREADY_COMPLETED" || mapped.HTTPStatus != http.StatusConflict {
		t.Fatalf("bad mapping: %+v", mapped)
	}

	wrapped := fmt.Errorf("while completing: %w", orig)
	if got := ToDomainError(wrapped); got.Code != "ALREADY_COMPLETED" {
		t.Fatalf("wrapped error lost its code: %+v", got)
	}
}

func TestToDomainErrorFallback(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	if mapped.Code != "INTERNAL_ERROR" || mapped.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("bad fallback: %+v", mapped)
	}
}

func TestIsCode(t *testing.T) {
	err := NewUnknownStaff("ghost")
	if !IsCode(err, "UNKNOWN_STAFF") {
		t.Fatalf("expected UNKNOWN_STAFF")
	}
	if IsCode(err, "NOT_FOUND") {
		t.Fatalf("unexpected code match")
	}
	if IsCode(errors.New("plain"), "UNKNOWN_STAFF") {
		t.Fatalf("plain errors carry no code")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewNoStaffAvailable()); got != "NO_STAFF_AVAILABLE" {
		t.Fatalf("got %s", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("nil error must map to empty code, got %s", got)
	}
}
