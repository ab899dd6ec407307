// Package statestore persists session registry metadata between client runs
// so a restarted client can restore its view before the first status event
// arrives. Output history is deliberately not persisted; the host owns it.
package statestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/brianly1003/termsync/internal/session"
)

const schemaVersion = 1

// Store is a SQLite-backed store for session metadata and the per-project
// active session.
type Store struct {
	db   *sql.DB
	path string

	stmtUpsertSession *sql.Stmt
	stmtDeleteSession *sql.Stmt
	stmtUpsertActive  *sql.Stmt
}

// Open opens (or creates) the store at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.prepare(); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().Str("path", path).Msg("state store opened")
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sessions (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL,
		name         TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		display_mode TEXT NOT NULL,
		is_primary   INTEGER NOT NULL DEFAULT 0,
		updated_at   TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id);
	CREATE TABLE IF NOT EXISTS active_sessions (
		project_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`,
		fmt.Sprintf("%d", schemaVersion),
	)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

func (s *Store) prepare() error {
	var err error

	s.stmtUpsertSession, err = s.db.Prepare(`
		INSERT INTO sessions (id, project_id, name, status, display_mode, is_primary, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name,
			status = excluded.status,
			display_mode = excluded.display_mode,
			is_primary = excluded.is_primary,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare session upsert: %w", err)
	}

	s.stmtDeleteSession, err = s.db.Prepare(`DELETE FROM sessions WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare session delete: %w", err)
	}

	s.stmtUpsertActive, err = s.db.Prepare(`
		INSERT INTO active_sessions (project_id, session_id) VALUES (?, ?)
		ON CONFLICT(project_id) DO UPDATE SET session_id = excluded.session_id`)
	if err != nil {
		return fmt.Errorf("failed to prepare active upsert: %w", err)
	}

	return nil
}

// SaveSession persists one session's metadata.
func (s *Store) SaveSession(info *session.Info) error {
	isPrimary := 0
	if info.IsPrimary {
		isPrimary = 1
	}
	_, err := s.stmtUpsertSession.Exec(
		info.ID, info.ProjectID, info.Name, string(info.Status),
		string(info.DisplayMode), isPrimary, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", info.ID, err)
	}
	return nil
}

// DeleteSession removes a session's metadata.
func (s *Store) DeleteSession(sessionID string) error {
	if _, err := s.stmtDeleteSession.Exec(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// LoadSessions returns all persisted session metadata.
func (s *Store) LoadSessions() ([]*session.Info, error) {
	rows, err := s.db.Query(`
		SELECT id, project_id, name, status, display_mode, is_primary
		FROM sessions ORDER BY project_id, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []*session.Info
	for rows.Next() {
		var info session.Info
		var status, displayMode string
		var isPrimary int
		if err := rows.Scan(&info.ID, &info.ProjectID, &info.Name, &status, &displayMode, &isPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		info.Status = session.Status(status)
		info.DisplayMode = session.DisplayMode(displayMode)
		info.IsPrimary = isPrimary != 0
		infos = append(infos, &info)
	}
	return infos, rows.Err()
}

// SetActiveSession records the last-active session for a project.
func (s *Store) SetActiveSession(projectID, sessionID string) error {
	if _, err := s.stmtUpsertActive.Exec(projectID, sessionID); err != nil {
		return fmt.Errorf("failed to save active session: %w", err)
	}
	return nil
}

// ActiveSession returns the recorded active session for a project, or "".
func (s *Store) ActiveSession(projectID string) (string, error) {
	var sessionID string
	err := s.db.QueryRow(
		`SELECT session_id FROM active_sessions WHERE project_id = ?`, projectID,
	).Scan(&sessionID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load active session: %w", err)
	}
	return sessionID, nil
}

// Close releases the database.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.stmtUpsertSession, s.stmtDeleteSession, s.stmtUpsertActive} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}
