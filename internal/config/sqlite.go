package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS document_chunks (
	id          TEXT PRIMARY KEY,
	content     TEXT NOT NULL,
	embedding   TEXT NOT NULL,
	content_type TEXT NOT NULL,
	metadata    TEXT,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS financial_data (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	company_symbol TEXT NOT NULL,
	metric_name    TEXT NOT NULL,
	metric_value   REAL,
	period         TEXT,
	year           INTEGER,
	quarter        INTEGER,
	data_source    TEXT,
	created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_financial_lookup
	ON financial_data (company_symbol, metric_name, updated_at);

CREATE TABLE IF NOT EXISTS chat_sessions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL,
	message        TEXT NOT NULL,
	response       TEXT,
	message_type   TEXT NOT NULL,
	kpis_extracted TEXT,
	timestamp      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// OpenDatabase opens the SQLite database and applies the schema.
// WAL mode keeps concurrent chat handlers and ingestion batches from
// blocking each other on writes.
func OpenDatabase(cfg *Config) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return db, nil
}
