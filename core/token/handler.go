package token

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
	"github.com/dimasfr/learnmarket/core/user"
	"github.com/dimasfr/learnmarket/database"
	"github.com/dimasfr/learnmarket/random"
	"github.com/dimasfr/learnmarket/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// HandleToken issues an activation or recovery token and mails it.
// The response is 204 whether or not the email exists, to avoid
// leaking which addresses are registered.
func HandleToken(db *sqlx.DB, mailer Mailer, timeout time.Duration, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in struct {
			Email string `json:"email" validate:"required,email"`
			Scope string `json:"scope" validate:"required,oneof=activation recovery"`
		}
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		usr, err := user.FetchByEmail(ctx, db, in.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			return fmt.Errorf("fetching user by email: %w", err)
		}

		plaintext, err := random.StringSecure(26)
		if err != nil {
			return fmt.Errorf("generating token: %w", err)
		}

		tok := Token{
			Hash:   Hash(plaintext),
			UserID: usr.ID,
			Scope:  in.Scope,
			Expiry: time.Now().UTC().Add(timeout),
		}

		if err := Create(ctx, db, tok); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}

		scope := in.Scope
		bg.Add(func() error {
			if scope == ScopeActivation {
				return mailer.SendActivation(usr.Email, plaintext)
			}
			return mailer.SendRecovery(usr.Email, plaintext)
		})

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleActivation spends an activation token and logs the user in.
func HandleActivation(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in struct {
			Token string `json:"token" validate:"required"`
		}
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		tok, err := Fetch(ctx, db, in.Token, ScopeActivation)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching activation token: %w", err)
		}

		usr, err := user.Fetch(ctx, db, tok.UserID)
		if err != nil {
			return fmt.Errorf("fetching user[%s] to activate: %w", tok.UserID, err)
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			usr.Active = true
			usr.UpdatedAt = time.Now().UTC()
			if err := user.Update(ctx, tx, usr); err != nil {
				return fmt.Errorf("activating user: %w", err)
			}

			return DeleteByUser(ctx, tx, usr.ID, ScopeActivation)
		})
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

// HandleRecovery spends a recovery token to set a new password.
func HandleRecovery(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in struct {
			Token           string `json:"token" validate:"required"`
			Password        string `json:"password" validate:"required,gte=8,lte=50"`
			PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password"`
		}
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		tok, err := Fetch(ctx, db, in.Token, ScopeRecovery)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching recovery token: %w", err)
		}

		usr, err := user.Fetch(ctx, db, tok.UserID)
		if err != nil {
			return fmt.Errorf("fetching user[%s] to recover: %w", tok.UserID, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing new password: %w", err)
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			usr.PasswordHash = hash
			usr.UpdatedAt = time.Now().UTC()
			if err := user.Update(ctx, tx, usr); err != nil {
				return fmt.Errorf("updating password: %w", err)
			}

			return DeleteByUser(ctx, tx, usr.ID, ScopeRecovery)
		})
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
