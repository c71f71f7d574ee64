package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medisched/medisched/internal/platform/apperr"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"missing credential", apperr.New(apperr.MissingCredential, "missing authorization header"), 401, "MISSING_CREDENTIAL", "missing authorization header"},
		{"unauthorized", apperr.New(apperr.Unauthorized, "token expired"), 401, "UNAUTHORIZED", "token expired"},
		{"upstream", apperr.Wrap(apperr.UpstreamUnavailable, "auth service unavailable", errors.New("dial tcp: refused")), 503, "UPSTREAM_UNAVAILABLE", "auth service unavailable"},
		{"forbidden", apperr.New(apperr.Forbidden, "not authorized"), 403, "FORBIDDEN", "not authorized"},
		{"not found", apperr.New(apperr.NotFound, "appointment not found"), 404, "NOT_FOUND", "appointment not found"},
		{"invalid input", apperr.New(apperr.InvalidInput, "invalid date"), 400, "INVALID_INPUT", "invalid date"},
		{"slot", fmt.Errorf("create: %w", apperr.New(apperr.SlotUnavailable, "slot already booked")), 409, "SLOT_UNAVAILABLE", "slot already booked"},
		{"exists", apperr.New(apperr.AlreadyExists, "username already registered"), 409, "ALREADY_EXISTS", "username already registered"},
		{"unclassified", errors.New("pq: relation does not exist"), 500, "INTERNAL", "internal server error"},
		{"echo bind", echo.NewHTTPError(http.StatusBadRequest, "invalid request body"), 400, "INVALID_INPUT", "invalid request body"},
		{"echo rate limit", echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), 429, "RATE_LIMITED", "rate limit exceeded"},
		{"echo route", echo.ErrNotFound, 404, "NOT_FOUND", "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			HTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, body.Error)
			}
			if body.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, body.Message)
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = c.String(http.StatusOK, "partial")
	HTTPErrorHandler(zerolog.Nop())(apperr.New(apperr.NotFound, "gone"), c)

	if rec.Code != http.StatusOK {
		t.Errorf("expected the committed status to stand, got %d", rec.Code)
	}
	if rec.Body.String() != "partial" {
		t.Errorf("expected no error body after commit, got %q", rec.Body.String())
	}
}
