package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{MissingCredential, http.StatusUnauthorized},
		{Unauthorized, http.StatusUnauthorized},
		{UpstreamUnavailable, http.StatusServiceUnavailable},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{InvalidInput, http.StatusBadRequest},
		{SlotUnavailable, http.StatusConflict},
		{AlreadyExists, http.StatusConflict},
		{Internal, http.StatusInternalServerError},
		{Kind(99), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := New(SlotUnavailable, "time slot not available")
	err := fmt.Errorf("create booking: %w", base)

	if KindOf(err) != SlotUnavailable {
		t.Errorf("expected SLOT_UNAVAILABLE, got %s", KindOf(err))
	}
	if !errors.Is(err, base) {
		t.Error("expected errors.Is to find the sentinel")
	}
	if MessageOf(err) != "time slot not available" {
		t.Errorf("unexpected message %q", MessageOf(err))
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("connection reset by peer")
	if KindOf(err) != Internal {
		t.Errorf("expected INTERNAL, got %s", KindOf(err))
	}
	if MessageOf(err) != "internal server error" {
		t.Errorf("unclassified error text leaked: %q", MessageOf(err))
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Wrap(UpstreamUnavailable, "auth service unavailable", cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if !Is(err, UpstreamUnavailable) {
		t.Error("expected UPSTREAM_UNAVAILABLE")
	}
	if Is(err, Unauthorized) {
		t.Error("upstream failure must not classify as UNAUTHORIZED")
	}
}
