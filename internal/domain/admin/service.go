package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const recordTimeout = 3 * time.Second

// Service records admin actions and serves the audit trail. RecordAction
// satisfies the Recorder interfaces of the catalog and order domains.
type Service interface {
	RecordAction(adminID uuid.UUID, action, entityType string, entityID uuid.UUID)
	ListLogs(ctx context.Context, pagination Pagination) ([]Log, int, error)
}

type service struct {
	repo Repository
}

// NewService creates an audit service backed by postgres
func NewService(db *sqlx.DB) Service {
	return &service{repo: NewRepository(db)}
}

// NewServiceWithRepository creates a service with an explicit repository
func NewServiceWithRepository(repo Repository) Service {
	return &service{repo: repo}
}

// RecordAction writes one audit entry. The mutation it describes already
// committed, so a failed write is logged for operators and nothing else.
func (s *service) RecordAction(adminID uuid.UUID, action, entityType string, entityID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	entry := NewLog(adminID, action, entityType, entityID)
	if err := s.repo.Insert(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("admin_id", adminID.String()).
			Str("action", action).
			Msg("failed to write admin log")
	}
}

func (s *service) ListLogs(ctx context.Context, pagination Pagination) ([]Log, int, error) {
	if pagination.Limit <= 0 || pagination.Limit > 100 {
		pagination.Limit = 20
	}
	if pagination.Offset < 0 {
		pagination.Offset = 0
	}
	return s.repo.List(ctx, pagination)
}
