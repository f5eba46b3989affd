package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/username/stockfolio/src/logger"
)

const createTableStatement = `
	CREATE TABLE IF NOT EXISTS portfolio_blobs (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

// OpenStore returns a SQLite-backed store for databasePath. An empty path, or a database
// that cannot be opened, yields a MemoryStore so the service keeps running without persistence.
// The returned close func is never nil.
func OpenStore(databasePath string) (PortfolioStore, func() error) {
	noop := func() error { return nil }
	if databasePath == "" {
		logger.L.Warn("DATABASE_PATH is empty; portfolios are kept in memory only")
		return NewMemoryStore(), noop
	}
	db, err := Open(databasePath)
	if err != nil {
		logger.L.Error("Database unavailable; portfolios are kept in memory only", "databasePath", databasePath, "error", err)
		return NewMemoryStore(), noop
	}
	logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	return NewSQLiteStore(db), db.Close
}

// Open opens a sqlite database and ensures the portfolio_blobs table exists.
func Open(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}
	// sqlite serialises writers; a single connection avoids SQLITE_BUSY and keeps :memory: shared.
	db.SetMaxOpenConns(1)

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	if err := migrateDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(createTableStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}

// migrateDatabase adds columns that older portfolio_blobs tables lack.
func migrateDatabase(db *sql.DB) error {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='portfolio_blobs'").Scan(&tableName)
	if err == sql.ErrNoRows {
		logger.L.Info("portfolio_blobs table does not exist, no migration needed as table will be created.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking for portfolio_blobs table: %w", err)
	}

	rows, err := db.Query("PRAGMA table_info(portfolio_blobs)")
	if err != nil {
		return fmt.Errorf("querying table schema for portfolio_blobs: %w", err)
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk, notnullVal int
		var name, dataType string
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info for portfolio_blobs: %w", err)
		}
		columnExists[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating over column info for portfolio_blobs: %w", err)
	}

	if !columnExists["updated_at"] {
		if _, err := db.Exec("ALTER TABLE portfolio_blobs ADD COLUMN updated_at TIMESTAMP"); err != nil {
			return fmt.Errorf("adding updated_at column to portfolio_blobs: %w", err)
		}
		logger.L.Info("Added updated_at column to portfolio_blobs table")
	}
	return nil
}
