package product

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Service exposes catalog operations
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, pagination Pagination) ([]Product, int, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error
}

type service struct {
	repo Repository
}

// NewService creates a catalog service backed by postgres
func NewService(db *sqlx.DB) Service {
	return &service{repo: NewRepository(db)}
}

// NewServiceWithRepository creates a service with an explicit repository
func NewServiceWithRepository(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}
	if req.Stock < 0 {
		return nil, ErrInvalidStock
	}

	p := &Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Price:       price,
		Description: req.Description,
		Stock:       req.Stock,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, pagination Pagination) ([]Product, int, error) {
	return s.repo.List(ctx, pagination)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Product, error) {
	fields := UpdateFields{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return nil, err
		}
		fields.Price = &price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, ErrInvalidStock
		}
		fields.Stock = req.Stock
	}
	return s.repo.Update(ctx, id, fields)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	return s.repo.SetImageURL(ctx, id, imageURL)
}
