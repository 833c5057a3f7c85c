// Package sqlx wraps the SQL executor's direct paths (ES-driven, template,
// and LLM-generated SQL) over a sqlite-backed domain store (spec §4.5).
package sqlx

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the domain database connection. It is a process-wide
// singleton, reused across requests.
type Store struct {
	db *sql.DB
}

// New opens a sqlite database at dbPath and ensures the domain schema
// exists.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for callers that need direct access
// (e.g. the executor's per-statement context/timeout wiring).
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the domain tables the entity catalog describes, if they
// do not already exist. A production deployment points at an existing
// warehouse; this migration only seeds a workable schema for local/dev use
// and tests.
func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patents (
			documentid TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT,
			appn_date TEXT,
			ntcd TEXT,
			citations INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS applicants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			documentid TEXT NOT NULL REFERENCES patents(documentid),
			applicant_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			sbjt_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT,
			year INTEGER,
			org_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS project_organizations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sbjt_id TEXT NOT NULL REFERENCES projects(sbjt_id),
			org_name TEXT NOT NULL,
			year INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS equipment (
			equip_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			org_name TEXT,
			region TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS proposals (
			conts_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT,
			org_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			evalp_id TEXT PRIMARY KEY,
			sbjt_id TEXT,
			score REAL
		)`,
		`CREATE TABLE IF NOT EXISTS evaluation_preferences (
			pref_id TEXT PRIMARY KEY,
			sbjt_id TEXT,
			advantage TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS evaluation_details (
			detail_id TEXT PRIMARY KEY,
			evalp_id TEXT,
			criterion TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS announcements (
			ancm_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("run schema statement: %w", err)
		}
	}
	return nil
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
