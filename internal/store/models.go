package store

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TeamRecord is one row of the team directory.
type TeamRecord struct {
	TeamID    int       `json:"team_id" db:"team_id"`
	Name      string    `json:"name" db:"name"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableRecord describes the stored table of one page.
type TableRecord struct {
	Page        string         `json:"page" db:"page"`
	Headers     pq.StringArray `json:"headers" db:"headers"`
	RowCount    int            `json:"row_count" db:"row_count"`
	Fingerprint string         `json:"fingerprint" db:"fingerprint"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}
