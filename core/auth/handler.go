package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dimasfr/learnmarket/api/background"
	"github.com/dimasfr/learnmarket/api/web"
	"github.com/dimasfr/learnmarket/api/weberr"
	"github.com/dimasfr/learnmarket/core/claims"
	"github.com/dimasfr/learnmarket/core/token"
	"github.com/dimasfr/learnmarket/core/user"
	"github.com/dimasfr/learnmarket/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleSignup registers a student account. The role is fixed at
// signup; only an admin can promote it afterwards.
func HandleSignup(db *sqlx.DB, session *scs.SessionManager, mailer token.Mailer, bg *background.Background, activationRequired bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var us user.UserSignup
		if err := web.Decode(w, r, &us); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(us); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(us.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:           validate.GenerateID(),
			Name:         us.Name,
			Email:        us.Email,
			Role:         claims.RoleStudent,
			PasswordHash: hash,
			Active:       !activationRequired,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			return fmt.Errorf("creating user on signup: %w", err)
		}

		bg.Add(func() error {
			return mailer.SendWelcome(usr.Email, usr.Name)
		})

		if !activationRequired {
			if err := login(ctx, session, usr.ID, usr.Role); err != nil {
				return fmt.Errorf("logging in user[%s] after signup: %w", usr.ID, err)
			}
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var cred credentials
		if err := web.Decode(w, r, &cred); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cred); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		usr, err := user.FetchByEmail(ctx, db, cred.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("wrong credentials"))
			}
			return fmt.Errorf("fetching user by email: %w", err)
		}

		if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(cred.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("wrong credentials"))
		}

		if !usr.Active {
			return weberr.NotAuthorized(errors.New("account is not activated"))
		}

		if err := login(ctx, session, usr.ID, usr.Role); err != nil {
			return fmt.Errorf("logging in user[%s]: %w", usr.ID, err)
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := logout(ctx, session); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
