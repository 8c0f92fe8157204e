package db

import (
	"time"

	"github.com/google/uuid"
)

// ProfileRecord is a row of the profiles table. Data and Settings hold the
// raw JSONB documents; callers validate them before use.
type ProfileRecord struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Data      []byte    `json:"data"`
	Settings  []byte    `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
