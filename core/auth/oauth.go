package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/dimasfr/learnmarket/api/web"
	"github.com/dimasfr/learnmarket/api/weberr"
	"github.com/dimasfr/learnmarket/core/claims"
	"github.com/dimasfr/learnmarket/core/user"
	"github.com/dimasfr/learnmarket/random"
	"github.com/dimasfr/learnmarket/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"
)

const sessionOauthState = "oauth_state"

type Provider struct {
	Oauth    *oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

// MakeProviders discovers the OIDC endpoints of the configured
// identity providers.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))

	for _, cfg := range cfgs {
		prov, err := oidc.NewProvider(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider[%s]: %w", cfg.Name, err)
		}

		provs[cfg.Name] = Provider{
			Oauth: &oauth2.Config{
				ClientID:     cfg.Client,
				ClientSecret: cfg.Secret,
				RedirectURL:  cfg.RedirectURL,
				Endpoint:     prov.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			Verifier: prov.Verifier(&oidc.Config{ClientID: cfg.Client}),
		}
	}

	return provs, nil
}

func HandleOauthLogin(session *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state, err := random.StringSecure(32)
		if err != nil {
			return fmt.Errorf("generating oauth state: %w", err)
		}
		session.Put(ctx, sessionOauthState, state)

		http.Redirect(w, r, prov.Oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, session *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state := session.PopString(ctx, sessionOauthState)
		if state == "" || state != r.URL.Query().Get("state") {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		tok, err := prov.Oauth.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("exchanging oauth code: %w", err))
		}

		rawID, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.BadRequest(errors.New("oauth token without id_token"))
		}

		idTok, err := prov.Verifier.Verify(ctx, rawID)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("verifying id token: %w", err))
		}

		var profile struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idTok.Claims(&profile); err != nil {
			return fmt.Errorf("decoding id token claims: %w", err)
		}

		usr, err := user.FetchByEmail(ctx, db, profile.Email)
		if errors.Is(err, user.ErrNotFound) {
			now := time.Now().UTC()
			usr = user.User{
				ID:        validate.GenerateID(),
				Name:      profile.Name,
				Email:     profile.Email,
				Role:      claims.RoleStudent,
				Active:    true,
				CreatedAt: now,
				UpdatedAt: now,
			}

			// No usable password for oauth accounts: recovery is the
			// only way to set one later.
			usr.PasswordHash = []byte{}

			if err := user.Create(ctx, db, usr); err != nil {
				return fmt.Errorf("creating oauth user: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("fetching oauth user by email: %w", err)
		}

		if err := login(ctx, session, usr.ID, usr.Role); err != nil {
			return fmt.Errorf("logging in oauth user[%s]: %w", usr.ID, err)
		}

		http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
		return nil
	}
}
