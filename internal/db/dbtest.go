package db

import (
	"errors"
	"os"

	"github.com/jmoiron/sqlx"
)

// InitTestDB connects to TEST_DATABASE_URL and applies the migrations.
func InitTestDB(migrationsPath string) (*sqlx.DB, Store, error) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		return nil, nil, errors.New("TEST_DATABASE_URL environment variable is not set")
	}

	conn, err := Init(dbURL)
	if err != nil {
		return nil, nil, err
	}
	if err := RunMigrations(conn, migrationsPath); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, NewStore(conn), nil
}
