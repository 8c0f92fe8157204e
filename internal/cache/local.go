package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/types"
	_ "modernc.org/sqlite"
)

// LocalMirror keeps the last known copy of each user's profile in a SQLite
// file, so the profile can still be served when the primary store is down.
type LocalMirror struct {
	db *sql.DB
}

// OpenLocalMirror opens (or creates) the mirror database at path. Use
// ":memory:" for a throwaway mirror.
func OpenLocalMirror(path string) (*LocalMirror, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create mirror directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS profile_mirror (
		user_id    TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init mirror schema: %w", err)
	}
	return &LocalMirror{db: db}, nil
}

// Close closes the database.
func (m *LocalMirror) Close() error {
	return m.db.Close()
}

// Put stores profile for userID, replacing any previous copy.
func (m *LocalMirror) Put(ctx context.Context, userID uuid.UUID, profile *types.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO profile_mirror (user_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID.String(), string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write mirror: %w", err)
	}
	return nil
}

// Get returns the mirrored profile for userID, or nil when there is none.
func (m *LocalMirror) Get(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	var data string
	err := m.db.QueryRowContext(ctx,
		`SELECT data FROM profile_mirror WHERE user_id = ?`, userID.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror: %w", err)
	}

	var profile types.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode mirrored profile: %w", err)
	}
	profile.Normalize()
	return &profile, nil
}

// Delete removes the mirrored profile for userID.
func (m *LocalMirror) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM profile_mirror WHERE user_id = ?`, userID.String()); err != nil {
		return fmt.Errorf("failed to delete mirror: %w", err)
	}
	return nil
}
