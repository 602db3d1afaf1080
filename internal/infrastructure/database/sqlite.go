package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"productform/internal/schema"
)

// ConnectSQLite opens the history database with WAL journaling and a busy timeout
func ConnectSQLite(dbName string) (*sql.DB, error) {
	return sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(500)", dbName))
}

// OpenHistory connects to dbName and makes sure the schema exists
func OpenHistory(ctx context.Context, dbName string) (*sql.DB, error) {
	db, err := ConnectSQLite(dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writes
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema.DDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}
