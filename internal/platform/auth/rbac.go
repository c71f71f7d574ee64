package auth

import (
	"github.com/labstack/echo/v4"
)

type ruleKind int

const (
	rulePublic ruleKind = iota
	ruleRoleOnly
	ruleSelfOrRole
)

// Rule is one row of an endpoint's authorization table, evaluated against the
// principal and the id of the resource owner.
type Rule struct {
	kind  ruleKind
	roles []Role
}

// Public allows every caller, authenticated or not.
func Public() Rule { return Rule{kind: rulePublic} }

// RoleOnly allows callers whose role is in roles.
func RoleOnly(roles ...Role) Rule { return Rule{kind: ruleRoleOnly, roles: roles} }

// SelfOrRole allows the resource owner and callers whose role is in roles.
func SelfOrRole(roles ...Role) Rule { return Rule{kind: ruleSelfOrRole, roles: roles} }

// Allows evaluates the rule. ownerID is ignored by Public and RoleOnly.
func (r Rule) Allows(p *Principal, ownerID int64) bool {
	switch r.kind {
	case rulePublic:
		return true
	case ruleRoleOnly:
		return p.HasRole(r.roles...)
	case ruleSelfOrRole:
		if p == nil {
			return false
		}
		return p.SubjectID == ownerID || p.HasRole(r.roles...)
	}
	return false
}

// Authorize returns nil when the rule allows p. A denial is always Forbidden;
// a missing principal on a non-public rule is MissingCredential.
func (r Rule) Authorize(p *Principal, ownerID int64) error {
	if p == nil && r.kind != rulePublic {
		return ErrMissingCredential
	}
	if !r.Allows(p, ownerID) {
		return ErrForbidden
	}
	return nil
}

// RequireRole returns middleware enforcing RoleOnly(roles...) for every route
// in a group. It must run after Authenticate.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	rule := RoleOnly(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, _ := PrincipalFromContext(c.Request().Context())
			if err := rule.Authorize(p, 0); err != nil {
				return err
			}
			return next(c)
		}
	}
}
