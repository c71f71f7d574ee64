package auth

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medisched/medisched/internal/platform/apperr"
)

type contextKey string

const principalKey contextKey = "principal"

// Role is the coarse role carried in every session token.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller of a single request. It is rebuilt
// from a verified token on every request and never stored.
type Principal struct {
	SubjectID   int64     `json:"user_id"`
	DisplayName string    `json:"username"`
	Role        Role      `json:"role"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HasRole reports whether the principal's role is one of roles.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal stored by Authenticate, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// CurrentPrincipal returns the principal of an authenticated echo request.
// Handlers mounted behind Authenticate always have one; a missing principal
// means the route was wired without authentication.
func CurrentPrincipal(c echo.Context) (*Principal, error) {
	p, ok := PrincipalFromContext(c.Request().Context())
	if !ok {
		return nil, ErrMissingCredential
	}
	return p, nil
}

var (
	ErrMissingCredential = apperr.New(apperr.MissingCredential, "missing authorization header")
	ErrInvalidFormat     = apperr.New(apperr.Unauthorized, "invalid authorization format")
	ErrForbidden         = apperr.New(apperr.Forbidden, "not authorized")
)
