package claims

import (
	"context"
	"errors"
	"fmt"
)

// Role classifies a principal. The set is closed: anything outside it
// must be rejected at parse time and never reach an access check.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Claims struct {
	UserID string
	Role   Role
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.Role == RoleAdmin
}

func IsUser(ctx context.Context, id string) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.UserID == id
}

// Decision is the outcome of an access check.
type Decision int

const (
	Unauthenticated Decision = iota
	Forbidden
	Allowed
)

// Check gates a principal against the roles allowed on a route.
// Authentication is decided before authorization: a nil principal is
// Unauthenticated no matter what the allowed set contains. Membership
// is exact, with no hierarchy: admin is rejected unless listed.
func Check(principal *Claims, allowed ...Role) Decision {
	if principal == nil {
		return Unauthenticated
	}

	for _, r := range allowed {
		if principal.Role == r {
			return Allowed
		}
	}

	return Forbidden
}

// RouteForRole maps a role to its dashboard path. The mapping is total:
// unknown roles land on the unauthorized page rather than falling through.
func RouteForRole(r Role) string {
	switch r {
	case RoleStudent:
		return "/dashboard/student"
	case RoleTeacher:
		return "/dashboard/teacher"
	case RoleAdmin:
		return "/dashboard/admin"
	default:
		return "/unauthorized"
	}
}
