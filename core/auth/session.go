package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/dimasfr/learnmarket/api/web"
	"github.com/dimasfr/learnmarket/api/weberr"
	"github.com/dimasfr/learnmarket/core/claims"
)

const (
	sessionUserID = "user_id"
	sessionRole   = "role"
)

// LoadAndSave adapts the scs session middleware to the handler type.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			sh.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}

func login(ctx context.Context, session *scs.SessionManager, userID string, role claims.Role) error {
	if err := session.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	session.Put(ctx, sessionUserID, userID)
	session.Put(ctx, sessionRole, string(role))
	return nil
}

func logout(ctx context.Context, session *scs.SessionManager) error {
	return session.Destroy(ctx)
}

// principal extracts the session's claims, or nil when the session
// carries no authenticated user.
func principal(ctx context.Context, session *scs.SessionManager) *claims.Claims {
	id := session.GetString(ctx, sessionUserID)
	if id == "" {
		return nil
	}

	role, err := claims.ParseRole(session.GetString(ctx, sessionRole))
	if err != nil {
		// A session with a role outside the closed set is treated as
		// anonymous rather than handed to the role check.
		return nil
	}

	return &claims.Claims{UserID: id, Role: role}
}

// Allow gates a route on an exact set of roles. A missing session is a
// 401 and a role outside the set is a 403; the two are never collapsed.
func Allow(session *scs.SessionManager, allowed ...claims.Role) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm := principal(ctx, session)

			switch claims.Check(clm, allowed...) {
			case claims.Unauthenticated:
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			case claims.Forbidden:
				return weberr.Forbidden(fmt.Errorf("role %q not allowed on %s", clm.Role, r.URL.Path))
			}

			return handler(claims.Set(ctx, *clm), w, r)
		}
		return h
	}
	return m
}

// Authenticate only requires a logged-in user, with any role.
func Authenticate(session *scs.SessionManager) web.Middleware {
	return Allow(session, claims.RoleStudent, claims.RoleTeacher, claims.RoleAdmin)
}

// Admin is a shorthand for routes restricted to administrators alone.
func Admin(session *scs.SessionManager) web.Middleware {
	return Allow(session, claims.RoleAdmin)
}
