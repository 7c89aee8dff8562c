package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeRepository struct {
	products map[uuid.UUID]*Product
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{products: make(map[uuid.UUID]*Product)}
}

func (f *fakeRepository) Create(_ context.Context, p *Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id uuid.UUID) (*Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (f *fakeRepository) List(_ context.Context, _ Pagination) ([]Product, int, error) {
	out := make([]Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeRepository) Update(_ context.Context, id uuid.UUID, fields UpdateFields) (*Product, error) {
	if fields.Empty() {
		return nil, ErrNothingToUpdate
	}
	p, ok := f.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	if fields.Name != nil {
		p.Name = *fields.Name
	}
	if fields.Price != nil {
		p.Price = *fields.Price
	}
	if fields.Description != nil {
		p.Description = *fields.Description
	}
	if fields.Stock != nil {
		p.Stock = *fields.Stock
	}
	if fields.ImageURL != nil {
		p.ImageURL = *fields.ImageURL
	}
	return p, nil
}

func (f *fakeRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeRepository) SetImageURL(_ context.Context, id uuid.UUID, imageURL string) error {
	p, ok := f.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.ImageURL = imageURL
	return nil
}

func TestCreateParsesPrice(t *testing.T) {
	svc := NewServiceWithRepository(newFakeRepository())

	p, err := svc.Create(context.Background(), CreateRequest{
		Name:  "Oat milk",
		Price: "129.90",
		Stock: 40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Price.Equal(decimal.RequireFromString("129.90")) {
		t.Errorf("price = %s, want 129.90", p.Price)
	}
}

func TestCreateRejectsBadPrice(t *testing.T) {
	svc := NewServiceWithRepository(newFakeRepository())

	cases := []string{"abc", "-5", "-0.01"}
	for _, raw := range cases {
		_, err := svc.Create(context.Background(), CreateRequest{Name: "x", Price: raw})
		if err != ErrInvalidPrice {
			t.Errorf("price %q: err = %v, want ErrInvalidPrice", raw, err)
		}
	}
}

func TestUpdatePartial(t *testing.T) {
	repo := newFakeRepository()
	svc := NewServiceWithRepository(repo)

	p, err := svc.Create(context.Background(), CreateRequest{
		Name:        "Rye bread",
		Price:       "89.00",
		Description: "sliced",
		Stock:       12,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newStock := 7
	updated, err := svc.Update(context.Background(), p.ID, UpdateRequest{Stock: &newStock})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Stock != 7 {
		t.Errorf("stock = %d, want 7", updated.Stock)
	}
	if updated.Name != "Rye bread" || updated.Description != "sliced" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if !updated.Price.Equal(decimal.RequireFromString("89.00")) {
		t.Errorf("price changed: %s", updated.Price)
	}
}

func TestUpdateNothingToUpdate(t *testing.T) {
	svc := NewServiceWithRepository(newFakeRepository())

	_, err := svc.Update(context.Background(), uuid.New(), UpdateRequest{})
	if err != ErrNothingToUpdate {
		t.Errorf("err = %v, want ErrNothingToUpdate", err)
	}
}

func TestUpdateRejectsNegativeStock(t *testing.T) {
	svc := NewServiceWithRepository(newFakeRepository())

	bad := -1
	_, err := svc.Update(context.Background(), uuid.New(), UpdateRequest{Stock: &bad})
	if err != ErrInvalidStock {
		t.Errorf("err = %v, want ErrInvalidStock", err)
	}
}

func TestDeleteMissingProduct(t *testing.T) {
	svc := NewServiceWithRepository(newFakeRepository())

	if err := svc.Delete(context.Background(), uuid.New()); err != ErrProductNotFound {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}
