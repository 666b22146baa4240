package test

import (
	"fmt"
	"os"
	"testing"

	"github.com/dimasfr/learnmarket/config"
	"github.com/dimasfr/learnmarket/database"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
)

var pgHost string

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not connect to docker: %v\n", err)
		os.Exit(1)
	}

	resource, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=postgres",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start postgres: %v\n", err)
		os.Exit(1)
	}

	pgHost = fmt.Sprintf("localhost:%s", resource.GetPort("5432/tcp"))

	if err := pool.Retry(func() error {
		db, err := openDB("postgres")
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	}); err != nil {
		fmt.Fprintf(os.Stderr, "postgres never became ready: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pool.Purge(resource); err != nil {
		fmt.Fprintf(os.Stderr, "could not purge postgres: %v\n", err)
	}

	os.Exit(code)
}

func openDB(name string) (*sqlx.DB, error) {
	return database.Open(config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       pgHost,
		Name:       name,
		MaxOpen:    5,
		DisableTLS: true,
	})
}

// openTestDB creates a dedicated database in the shared container so
// tests don't step on each other.
func openTestDB(name string) (*sqlx.DB, error) {
	admin, err := openDB("postgres")
	if err != nil {
		return nil, err
	}
	defer admin.Close()

	if _, err := admin.Exec(fmt.Sprintf("CREATE DATABASE %s", name)); err != nil {
		return nil, fmt.Errorf("creating database %s: %w", name, err)
	}

	return openDB(name)
}
