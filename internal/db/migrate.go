package db

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema against the database. Statements are
// idempotent (IF NOT EXISTS), so running it on every startup is safe.
func Migrate(dsn string) error {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("migrate open: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("migrate exec: %w", err)
	}
	return nil
}
