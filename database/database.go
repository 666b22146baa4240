package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dimasfr/learnmarket/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned on queries that match no row. Core packages
// translate it into their own not-found errors.
var ErrNotFound = errors.New("no matching row")

func Open(cfg config.DB) (*sqlx.DB, error) {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open("postgres", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpen)

	return db, nil
}

// StatusCheck waits for the database to be reachable, bounded by ctx.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	var pingError error
	for attempts := 1; ; attempts++ {
		pingError = db.Ping()
		if pingError == nil {
			break
		}

		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)

		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready: %w", ctx.Err())
		default:
		}
	}

	var tmp bool
	return db.QueryRowContext(ctx, "SELECT true").Scan(&tmp)
}

// Transaction runs fn inside a transaction, rolling back on error.
func Transaction(db *sqlx.DB, fn func(tx sqlx.ExtContext) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if errRb := tx.Rollback(); errRb != nil {
			return fmt.Errorf("rolling back transaction: %v, original error: %w", errRb, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// NamedQueryStruct runs a named query expected to return a single row
// and scans it into dest.
func NamedQueryStruct(ctx context.Context, db sqlx.ExtContext, query string, data interface{}, dest interface{}) error {
	rows, err := sqlx.NamedQueryContext(ctx, db, query, data)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		return ErrNotFound
	}

	return rows.StructScan(dest)
}

// NamedQuerySlice runs a named query and scans all rows into dest,
// which must be a pointer to a slice of structs.
func NamedQuerySlice[T any](ctx context.Context, db sqlx.ExtContext, query string, data interface{}, dest *[]T) error {
	rows, err := sqlx.NamedQueryContext(ctx, db, query, data)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v T
		if err := rows.StructScan(&v); err != nil {
			return err
		}
		*dest = append(*dest, v)
	}

	return rows.Err()
}
