package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimasfr/learnmarket/database"
	"github.com/jmoiron/sqlx"
)

func Upsert(ctx context.Context, db sqlx.ExtContext, cart Cart) error {
	const q = `
	INSERT INTO carts
		(user_id, created_at, updated_at)
	VALUES
		(:user_id, :created_at, :updated_at)
	ON CONFLICT (user_id) DO UPDATE
	SET
		updated_at = EXCLUDED.updated_at,
		version = carts.version + 1`

	if _, err := sqlx.NamedExecContext(ctx, db, q, cart); err != nil {
		return fmt.Errorf("upserting cart: %w", err)
	}

	return nil
}

// UpsertItem inserts a cart line or, when the (user, course) pair is
// already present, merges by adding the quantities. The stored price
// snapshot is deliberately left untouched on conflict.
func UpsertItem(ctx context.Context, db sqlx.ExtContext, item Item) (Item, error) {
	const q = `
	INSERT INTO cart_items
		(user_id, course_id, quantity, price, created_at, updated_at)
	VALUES
		(:user_id, :course_id, :quantity, :price, :created_at, :updated_at)
	ON CONFLICT (user_id, course_id) DO UPDATE
	SET
		quantity = cart_items.quantity + EXCLUDED.quantity,
		updated_at = EXCLUDED.updated_at
	RETURNING *`

	var merged Item
	if err := database.NamedQueryStruct(ctx, db, q, item, &merged); err != nil {
		return Item{}, fmt.Errorf("upserting item: %w", err)
	}

	return merged, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{UserID: userID}

	const q = `
	SELECT * FROM carts
	WHERE user_id = :user_id`

	var crt Cart
	if err := database.NamedQueryStruct(ctx, db, q, in, &crt); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// An untouched cart reads as empty rather than missing.
			return Cart{UserID: userID, Items: []Item{}}, nil
		}
		return Cart{}, fmt.Errorf("selecting cart of user[%s]: %w", userID, err)
	}

	items, err := FetchItems(ctx, db, userID)
	if err != nil {
		return Cart{}, err
	}

	crt.Items = items
	for _, it := range items {
		crt.Total += it.Price * it.Quantity
	}

	return crt, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{UserID: userID}

	const q = `
	SELECT * FROM cart_items
	WHERE user_id = :user_id
	ORDER BY created_at`

	items := []Item{}
	if err := database.NamedQuerySlice(ctx, db, q, in, &items); err != nil {
		return nil, fmt.Errorf("selecting cart items of user[%s]: %w", userID, err)
	}

	return items, nil
}

// Delete empties a user's cart.
func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	in := struct {
		UserID string `db:"user_id"`
	}{UserID: userID}

	const qi = `
	DELETE FROM cart_items
	WHERE user_id = :user_id`

	if _, err := sqlx.NamedExecContext(ctx, db, qi, in); err != nil {
		return fmt.Errorf("deleting cart items of user[%s]: %w", userID, err)
	}

	const qc = `
	DELETE FROM carts
	WHERE user_id = :user_id`

	if _, err := sqlx.NamedExecContext(ctx, db, qc, in); err != nil {
		return fmt.Errorf("deleting cart of user[%s]: %w", userID, err)
	}

	return nil
}

func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) error {
	in := struct {
		UserID   string `db:"user_id"`
		CourseID string `db:"course_id"`
	}{UserID: userID, CourseID: courseID}

	const q = `
	DELETE FROM cart_items
	WHERE user_id = :user_id AND course_id = :course_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, in); err != nil {
		return fmt.Errorf("deleting course[%s] from cart of user[%s]: %w", courseID, userID, err)
	}

	return nil
}
