package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Service exposes cart operations
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	View(ctx context.Context, userID uuid.UUID) (*Cart, error)
}

type service struct {
	repo Repository
}

// NewService creates a cart service backed by postgres
func NewService(db *sqlx.DB) Service {
	return &service{repo: NewRepository(db)}
}

// NewServiceWithRepository creates a service with an explicit repository
func NewServiceWithRepository(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return s.repo.Upsert(ctx, userID, productID, quantity)
}

func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return s.repo.SetQuantity(ctx, userID, productID, quantity)
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.repo.Remove(ctx, userID, productID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}

func (s *service) View(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	lines, err := s.repo.View(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return &Cart{Lines: lines, Total: total}, nil
}
