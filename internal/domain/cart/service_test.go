package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeRepository struct {
	lines map[uuid.UUID]map[uuid.UUID]*Line
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{lines: make(map[uuid.UUID]map[uuid.UUID]*Line)}
}

func (f *fakeRepository) seedProduct(userID, productID uuid.UUID, name string, price string, quantity int) {
	if f.lines[userID] == nil {
		f.lines[userID] = make(map[uuid.UUID]*Line)
	}
	f.lines[userID][productID] = &Line{
		ProductID: productID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Quantity:  quantity,
	}
}

func (f *fakeRepository) Upsert(_ context.Context, userID, productID uuid.UUID, quantity int) error {
	if f.lines[userID] == nil {
		f.lines[userID] = make(map[uuid.UUID]*Line)
	}
	if line, ok := f.lines[userID][productID]; ok {
		line.Quantity += quantity
		return nil
	}
	f.lines[userID][productID] = &Line{ProductID: productID, Quantity: quantity, Price: decimal.Zero}
	return nil
}

func (f *fakeRepository) SetQuantity(_ context.Context, userID, productID uuid.UUID, quantity int) error {
	line, ok := f.lines[userID][productID]
	if !ok {
		return ErrItemNotFound
	}
	line.Quantity = quantity
	return nil
}

func (f *fakeRepository) Remove(_ context.Context, userID, productID uuid.UUID) error {
	if _, ok := f.lines[userID][productID]; !ok {
		return ErrItemNotFound
	}
	delete(f.lines[userID], productID)
	return nil
}

func (f *fakeRepository) Clear(_ context.Context, userID uuid.UUID) error {
	delete(f.lines, userID)
	return nil
}

func (f *fakeRepository) View(_ context.Context, userID uuid.UUID) ([]Line, error) {
	out := make([]Line, 0)
	for _, line := range f.lines[userID] {
		out = append(out, *line)
	}
	return out, nil
}

func TestAddAccumulatesQuantity(t *testing.T) {
	repo := newFakeRepository()
	svc := NewServiceWithRepository(repo)

	userID := uuid.New()
	productID := uuid.New()

	if err := svc.Add(context.Background(), userID, productID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := svc.Add(context.Background(), userID, productID, 3); err != nil {
		t.Fatalf("second add: %v", err)
	}

	if got := repo.lines[userID][productID].Quantity; got != 5 {
		t.Errorf("quantity = %d, want 5", got)
	}
}

func TestAddRejectsZeroQuantity(t *testing.T) {
	svc := NewServiceWithRepository(newFakeRepository())

	for _, q := range []int{0, -1} {
		if err := svc.Add(context.Background(), uuid.New(), uuid.New(), q); err != ErrInvalidQuantity {
			t.Errorf("quantity %d: err = %v, want ErrInvalidQuantity", q, err)
		}
	}
}

func TestSetQuantityMissingLine(t *testing.T) {
	svc := NewServiceWithRepository(newFakeRepository())

	err := svc.SetQuantity(context.Background(), uuid.New(), uuid.New(), 4)
	if err != ErrItemNotFound {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}

func TestViewComputesLiveTotal(t *testing.T) {
	repo := newFakeRepository()
	svc := NewServiceWithRepository(repo)

	userID := uuid.New()
	repo.seedProduct(userID, uuid.New(), "Milk", "95.50", 2)
	repo.seedProduct(userID, uuid.New(), "Bread", "60.00", 1)

	cart, err := svc.View(context.Background(), userID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	want := decimal.RequireFromString("251.00")
	if !cart.Total.Equal(want) {
		t.Errorf("total = %s, want %s", cart.Total, want)
	}
	if len(cart.Lines) != 2 {
		t.Errorf("lines = %d, want 2", len(cart.Lines))
	}
}

func TestViewRepricesAfterPriceChange(t *testing.T) {
	repo := newFakeRepository()
	svc := NewServiceWithRepository(repo)

	userID := uuid.New()
	productID := uuid.New()
	repo.seedProduct(userID, productID, "Milk", "95.50", 2)

	// Prices are not frozen at add time: a catalog price change shows up
	// in the next view.
	repo.lines[userID][productID].Price = decimal.RequireFromString("110.00")

	cart, err := svc.View(context.Background(), userID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	want := decimal.RequireFromString("220.00")
	if !cart.Total.Equal(want) {
		t.Errorf("total = %s, want %s", cart.Total, want)
	}
}

func TestViewEmptyCart(t *testing.T) {
	svc := NewServiceWithRepository(newFakeRepository())

	cart, err := svc.View(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(cart.Lines) != 0 || !cart.Total.IsZero() {
		t.Errorf("want empty cart with zero total, got %+v", cart)
	}
}
