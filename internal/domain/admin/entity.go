package admin

import (
	"time"

	"github.com/google/uuid"
)

// Log is one audit trail entry. The table is append-only; entries are
// written after the guarded mutation succeeds.
type Log struct {
	ID         uuid.UUID     `db:"id"`
	AdminID    uuid.UUID     `db:"admin_id"`
	Action     string        `db:"action"`
	EntityType string        `db:"entity_type"`
	EntityID   uuid.NullUUID `db:"entity_id"`
	CreatedAt  time.Time     `db:"created_at"`
}

// Pagination bounds log listings
type Pagination struct {
	Limit  int
	Offset int
}
