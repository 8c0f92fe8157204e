package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, email, data, settings, created_at, updated_at`

func scanProfile(row pgx.Row) (*ProfileRecord, error) {
	var p ProfileRecord
	if err := row.Scan(&p.ID, &p.Email, &p.Data, &p.Settings, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureProfile creates an empty profile row for the user if none exists and
// returns the stored row. The email is refreshed on every call.
func (db *DB) EnsureProfile(ctx context.Context, userID uuid.UUID, email string) (*ProfileRecord, error) {
	p, err := scanProfile(db.pool.QueryRow(ctx,
		`INSERT INTO profiles (id, email)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET email = CASE WHEN $2 = '' THEN profiles.email ELSE $2 END
		 RETURNING `+profileColumns,
		userID, email,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}
	return p, nil
}

// SaveProfileData replaces the profile document, creating the row if needed.
func (db *DB) SaveProfileData(ctx context.Context, userID uuid.UUID, data []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO profiles (id, data, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		userID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// SaveSettings replaces the user's settings document.
func (db *DB) SaveSettings(ctx context.Context, userID uuid.UUID, settings []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO profiles (id, settings, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = NOW()`,
		userID, settings,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
