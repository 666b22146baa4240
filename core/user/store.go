package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimasfr/learnmarket/database"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("user does not exist")

func Create(ctx context.Context, db sqlx.ExtContext, user User) error {
	const q = `
	INSERT INTO users
		(user_id, name, email, role, password_hash, active, created_at, updated_at)
	VALUES
		(:user_id, :name, :email, :role, :password_hash, :active, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, user); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	in := struct {
		ID string `db:"user_id"`
	}{ID: id}

	const q = `
	SELECT * FROM users
	WHERE user_id = :user_id`

	var usr User
	if err := database.NamedQueryStruct(ctx, db, q, in, &usr); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}

	return usr, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	in := struct {
		Email string `db:"email"`
	}{Email: email}

	const q = `
	SELECT * FROM users
	WHERE email = :email`

	var usr User
	if err := database.NamedQueryStruct(ctx, db, q, in, &usr); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}

	return usr, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, user User) error {
	const q = `
	UPDATE users
	SET
		name = :name,
		email = :email,
		role = :role,
		password_hash = :password_hash,
		active = :active,
		updated_at = :updated_at,
		version = version + 1
	WHERE user_id = :user_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, user)
	if err != nil {
		return fmt.Errorf("updating user[%s]: %w", user.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating user[%s]: stale version", user.ID)
	}

	return nil
}
