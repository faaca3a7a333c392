package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Schema for the session_state table. Applied by NewSQLite; safe to run
// more than once.
const Schema = `
CREATE TABLE IF NOT EXISTS session_state (
    session_id TEXT NOT NULL,
    key        TEXT NOT NULL,
    data       BLOB NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, key)
);
`

// SQLite is session-scoped Storage backed by a shared SQLite database.
// Rows are keyed by (session id, storage key), so many concurrent review
// sessions share one database file.
type SQLite struct {
	db        *sql.DB
	sessionID string
}

// NewSQLite creates a Storage bound to one review session and applies
// the schema.
func NewSQLite(db *sql.DB, sessionID string) (*SQLite, error) {
	if db == nil {
		return nil, fmt.Errorf("store: DB is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("store: session ID is required")
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &SQLite{db: db, sessionID: sessionID}, nil
}

func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM session_state WHERE session_id = ? AND key = ?`,
		s.sessionID, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read %s: %w", key, err)
	}
	return data, true, nil
}

func (s *SQLite) Put(key string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO session_state (session_id, key, data, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.sessionID, key, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(key string) error {
	_, err := s.db.Exec(
		`DELETE FROM session_state WHERE session_id = ? AND key = ?`,
		s.sessionID, key,
	)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

// PruneSessions deletes state rows untouched for longer than maxAge.
// Review sessions are short-lived; the shared database should not grow
// without bound.
func PruneSessions(db *sql.DB, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge).Unix()
	if _, err := db.Exec(`DELETE FROM session_state WHERE updated_at < ?`, cutoff); err != nil {
		return fmt.Errorf("store: prune: %w", err)
	}
	return nil
}
