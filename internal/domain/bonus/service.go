package bonus

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Service exposes bonus ledger operations
type Service interface {
	// Apply credits or debits an account. For debit, fails atomically with
	// ErrInsufficientBalance when amount exceeds the current balance.
	Apply(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, kind Kind, description string) (*Transaction, error)

	// GetBalance returns the current bonus balance
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	// ListTransactions returns paginated ledger history for an account
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error)
}

type service struct {
	repo Repository
}

// NewService creates a bonus service backed by the given database
func NewService(db *sqlx.DB) Service {
	return &service{repo: NewRepository(db)}
}

// NewServiceWithRepository creates a bonus service over an existing repository
func NewServiceWithRepository(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Apply(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, kind Kind, description string) (*Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	return s.repo.Apply(ctx, userID, amount, kind, description)
}

func (s *service) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, Pagination{Limit: limit, Offset: offset})
}
