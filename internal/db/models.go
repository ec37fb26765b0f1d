package db

import (
	"database/sql"
	"time"
)

// Slot is a stored key with its metadata
type Slot struct {
	Key       string
	Size      int
	CreatedAt time.Time
	UpdatedAt sql.NullTime
}

// LastWrite returns the most recent write time of the slot
func (s Slot) LastWrite() time.Time {
	if s.UpdatedAt.Valid {
		return s.UpdatedAt.Time
	}
	return s.CreatedAt
}
