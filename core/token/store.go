package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimasfr/learnmarket/database"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("token does not exist or is expired")

func Create(ctx context.Context, db sqlx.ExtContext, tok Token) error {
	const q = `
	INSERT INTO tokens
		(token_hash, user_id, scope, expiry)
	VALUES
		(:token_hash, :user_id, :scope, :expiry)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, tok); err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}

	return nil
}

// Fetch resolves a plaintext token to its row, expired tokens excluded.
func Fetch(ctx context.Context, db sqlx.ExtContext, plaintext string, scope string) (Token, error) {
	in := struct {
		Hash  []byte    `db:"token_hash"`
		Scope string    `db:"scope"`
		Now   time.Time `db:"now"`
	}{Hash: Hash(plaintext), Scope: scope, Now: time.Now().UTC()}

	const q = `
	SELECT * FROM tokens
	WHERE token_hash = :token_hash AND scope = :scope AND expiry > :now`

	var tok Token
	if err := database.NamedQueryStruct(ctx, db, q, in, &tok); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Token{}, ErrNotFound
		}
		return Token{}, fmt.Errorf("selecting token: %w", err)
	}

	return tok, nil
}

// DeleteByUser drops every token of a scope for a user, typically
// after one of them has been spent.
func DeleteByUser(ctx context.Context, db sqlx.ExtContext, userID string, scope string) error {
	in := struct {
		UserID string `db:"user_id"`
		Scope  string `db:"scope"`
	}{UserID: userID, Scope: scope}

	const q = `
	DELETE FROM tokens
	WHERE user_id = :user_id AND scope = :scope`

	if _, err := sqlx.NamedExecContext(ctx, db, q, in); err != nil {
		return fmt.Errorf("deleting tokens of user[%s]: %w", userID, err)
	}

	return nil
}
