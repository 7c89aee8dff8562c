package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines audit log data access
type Repository interface {
	Insert(ctx context.Context, entry *Log) error
	List(ctx context.Context, pagination Pagination) ([]Log, int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates an audit log repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, entry *Log) error {
	query := `
		INSERT INTO admin_logs (id, admin_id, action, entity_type, entity_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.AdminID, entry.Action, entry.EntityType, entry.EntityID,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("admin repository: insert log: %w", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, pagination Pagination) ([]Log, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM admin_logs`); err != nil {
		return nil, 0, fmt.Errorf("admin repository: count logs: %w", err)
	}

	logs := make([]Log, 0)
	query := `
		SELECT id, admin_id, action, entity_type, entity_id, created_at
		FROM admin_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &logs, query, pagination.Limit, pagination.Offset); err != nil {
		return nil, 0, fmt.Errorf("admin repository: list logs: %w", err)
	}
	return logs, total, nil
}

// NewLog builds an entry; entityID may be uuid.Nil for actions without a
// specific target.
func NewLog(adminID uuid.UUID, action, entityType string, entityID uuid.UUID) *Log {
	entry := &Log{
		ID:         uuid.New(),
		AdminID:    adminID,
		Action:     action,
		EntityType: entityType,
	}
	if entityID != uuid.Nil {
		entry.EntityID = uuid.NullUUID{UUID: entityID, Valid: true}
	}
	return entry
}
