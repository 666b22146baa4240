package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimasfr/learnmarket/database"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("order does not exist")

func Create(ctx context.Context, db sqlx.ExtContext, order Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, provider_id, status, created_at, updated_at)
	VALUES
		(:order_id, :user_id, :provider_id, :status, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, order); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, item Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, course_id, price, quantity, created_at)
	VALUES
		(:order_id, :course_id, :price, :quantity, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, item); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}

	return nil
}

func FetchByProviderID(ctx context.Context, db sqlx.ExtContext, providerID string) (Order, error) {
	in := struct {
		ProviderID string `db:"provider_id"`
	}{ProviderID: providerID}

	const q = `
	SELECT * FROM orders
	WHERE provider_id = :provider_id`

	var ord Order
	if err := database.NamedQueryStruct(ctx, db, q, in, &ord); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("selecting order bound to payment[%s]: %w", providerID, err)
	}

	return ord, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `
	UPDATE orders
	SET
		status = :status,
		updated_at = :updated_at
	WHERE order_id = :order_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, up); err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", up.ID, err)
	}

	return nil
}
