package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medisched/medisched/internal/platform/apperr"
)

func TestLookupClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/by-username/alice":
			_ = json.NewEncoder(w).Encode(UserInfo{UserID: 11, Username: "alice", Email: "alice@example.com", Role: RolePatient})
		case "/users/by-username/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewLookupClient(srv.URL+"/", time.Second)

	info, err := client.LookupUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.UserID != 11 {
		t.Errorf("expected user 11, got %d", info.UserID)
	}

	_, err = client.LookupUsername(context.Background(), "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	_, err = client.LookupUsername(context.Background(), "broken")
	if !apperr.Is(err, apperr.UpstreamUnavailable) {
		t.Errorf("expected UPSTREAM_UNAVAILABLE, got %v", err)
	}
}

func TestLookupClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewLookupClient(url, time.Second).LookupUsername(context.Background(), "alice")
	if !apperr.Is(err, apperr.UpstreamUnavailable) {
		t.Errorf("expected UPSTREAM_UNAVAILABLE, got %v", err)
	}
	if apperr.Is(err, apperr.NotFound) {
		t.Error("an unreachable authority must not be reported as NOT_FOUND")
	}
}

func TestLookupClient_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   apperr.Kind
	}{
		{http.StatusNotFound, apperr.NotFound},
		{http.StatusUnauthorized, apperr.UpstreamUnavailable},
		{http.StatusTooManyRequests, apperr.UpstreamUnavailable},
		{http.StatusBadGateway, apperr.UpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewLookupClient(srv.URL, time.Second).LookupUsername(context.Background(), "alice")
			if got := apperr.KindOf(err); got != tt.want {
				t.Errorf("status %d: expected %s, got %s (%v)", tt.status, tt.want, got, err)
			}
		})
	}
}
