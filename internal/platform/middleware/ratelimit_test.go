package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newLimitedHandler(cfg RateLimitConfig) echo.HandlerFunc {
	return RateLimit(NewRateLimiter(cfg))(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func requestFrom(e *echo.Echo, ip string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	handler := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		c, rec := requestFrom(e, "10.0.0.1")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	handler := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		c, _ := requestFrom(e, "10.0.0.1")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	c, rec := requestFrom(e, "10.0.0.1")
	err := handler(c)
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}

	retryVal, parseErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if parseErr != nil {
		t.Fatalf("Retry-After header is not a valid integer: %q", rec.Header().Get("Retry-After"))
	}
	if retryVal < 1 {
		t.Errorf("expected Retry-After >= 1, got %d", retryVal)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	e := echo.New()
	handler := newLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	c1, _ := requestFrom(e, "10.0.0.1")
	if err := handler(c1); err != nil {
		t.Fatalf("first client, first request: %v", err)
	}
	c2, _ := requestFrom(e, "10.0.0.1")
	if err := handler(c2); err == nil {
		t.Fatal("first client, second request: expected rate limit error")
	}
	c3, _ := requestFrom(e, "10.0.0.2")
	if err := handler(c3); err != nil {
		t.Fatalf("second client: expected its own bucket, got %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 50 {
		t.Errorf("expected RequestsPerSecond 50, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 100 {
		t.Errorf("expected BurstSize 100, got %d", cfg.BurstSize)
	}
}

func TestRateLimiter_SameKeySameLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	l1 := rl.get("key1")
	if l1 != rl.get("key1") {
		t.Error("expected same limiter instance for same key")
	}
	if l1 == rl.get("key2") {
		t.Error("expected different limiter for different key")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5, IdleTTL: time.Minute})
	rl.get("idle")
	rl.get("active")

	rl.mu.Lock()
	rl.clients["idle"].seen = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if removed := rl.Sweep(time.Now()); removed != 1 {
		t.Errorf("expected 1 removed limiter, got %d", removed)
	}
	rl.mu.Lock()
	_, idleLeft := rl.clients["idle"]
	_, activeLeft := rl.clients["active"]
	rl.mu.Unlock()
	if idleLeft || !activeLeft {
		t.Errorf("expected only the idle client to be swept (idle=%v active=%v)", idleLeft, activeLeft)
	}
}

func TestRateLimit_Skipper(t *testing.T) {
	e := echo.New()
	handler := newLimitedHandler(RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/verify"
		},
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/verify", nil)
		req.RemoteAddr = "10.0.0.9:12345"
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(req, rec)); err != nil {
			t.Fatalf("skipped request %d: expected no error, got %v", i+1, err)
		}
	}

	c, _ := requestFrom(e, "10.0.0.9")
	if err := handler(c); err != nil {
		t.Fatalf("skipped requests must not spend the budget: %v", err)
	}
	c, _ = requestFrom(e, "10.0.0.9")
	if err := handler(c); err == nil {
		t.Fatal("expected the second limited request to be rejected")
	}
}
