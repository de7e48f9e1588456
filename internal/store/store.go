package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Sentinel errors classified to HTTP status codes at the API boundary.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// Store provides SQLite-backed persistence for all swarmdock records.
type Store struct {
	db *sql.DB
}

// NewStore opens the SQLite database at dbPath and creates tables if they
// don't exist. Foreign key enforcement is enabled so worker rows cascade with
// their session and memory operations detach on session delete.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		project_name TEXT NOT NULL,
		project_path TEXT NOT NULL,
		swarm_type TEXT NOT NULL,
		task TEXT NOT NULL,
		status TEXT NOT NULL,
		namespace TEXT NOT NULL,
		metadata TEXT,
		error_text TEXT,
		created_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		agent_type TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		task TEXT NOT NULL,
		status TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		result TEXT,
		error_text TEXT,
		metadata TEXT,
		created_at DATETIME NOT NULL,
		started_at DATETIME,
		completed_at DATETIME,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS memory_operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		namespace TEXT NOT NULL,
		key TEXT,
		query TEXT,
		result_count INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL,
		error_text TEXT,
		session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agent_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		agent_type TEXT NOT NULL,
		usage_count INTEGER NOT NULL DEFAULT 0,
		total_input_tokens INTEGER NOT NULL DEFAULT 0,
		total_output_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		avg_completion_ms REAL NOT NULL DEFAULT 0,
		success_rate REAL NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		UNIQUE (owner_id, agent_type)
	);

	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		swarm_type TEXT NOT NULL,
		agent_types TEXT NOT NULL,
		namespace TEXT,
		task_template TEXT,
		created_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}
