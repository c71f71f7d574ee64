package patient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medisched/medisched/internal/platform/auth"
	"github.com/medisched/medisched/internal/platform/middleware"
)

func newTestServer(t *testing.T) (*echo.Echo, func(p *auth.Principal) string) {
	t.Helper()
	signer, err := auth.NewSigner([]byte("patient-test-secret"), auth.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	e := echo.New()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(zerolog.Nop())
	NewHandler(NewService(newMockRepo())).RegisterRoutes(e.Group(""), auth.Authenticate(auth.NewLocalVerifier(signer)))

	token := func(p *auth.Principal) string {
		tok, _, err := signer.Issue(p.SubjectID, p.DisplayName, p.Role)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		return tok
	}
	return e, token
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ProfileLifecycle(t *testing.T) {
	e, token := newTestServer(t)
	body := `{"first_name":"Alice","last_name":"Liddell","date_of_birth":"1990-04-01"}`

	rec := do(e, http.MethodPost, "/patients", body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}

	rec = do(e, http.MethodPost, "/patients", body, token(alice))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var p Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = do(e, http.MethodPost, "/patients", body, token(alice))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/patients/me", "", token(alice))
	if rec.Code != http.StatusOK {
		t.Errorf("me: expected 200, got %d", rec.Code)
	}

	path := "/patients/" + strconv.FormatInt(p.ID, 10)
	if rec := do(e, http.MethodGet, path, "", token(bob)); rec.Code != http.StatusForbidden {
		t.Errorf("bob: expected 403, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, path, "", token(doctor)); rec.Code != http.StatusOK {
		t.Errorf("doctor: expected 200, got %d", rec.Code)
	}

	rec = do(e, http.MethodPut, path, `{"first_name":"Alice","last_name":"L","date_of_birth":"1990-13-01"}`, token(alice))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: expected 400, got %d", rec.Code)
	}
}

func TestHandler_List(t *testing.T) {
	e, token := newTestServer(t)

	if rec := do(e, http.MethodGet, "/patients", "", token(alice)); rec.Code != http.StatusForbidden {
		t.Errorf("patient: expected 403, got %d", rec.Code)
	}
	rec := do(e, http.MethodGet, "/patients", "", token(admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}
