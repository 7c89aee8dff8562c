package order

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lavka/lavka-api/internal/pkg/yookassa"
)

type fakeRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*Order
	byPay  map[string]uuid.UUID

	checkoutErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		orders: make(map[uuid.UUID]*Order),
		byPay:  make(map[string]uuid.UUID),
	}
}

func (f *fakeRepository) add(o *Order) {
	f.orders[o.ID] = o
	if o.PaymentID.Valid {
		f.byPay[o.PaymentID.String] = o.ID
	}
}

func (f *fakeRepository) Checkout(_ context.Context, userID uuid.UUID) (*Order, error) {
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	o := &Order{ID: uuid.New(), UserID: userID, TotalAmount: decimal.RequireFromString("100.00"), Status: StatusPending}
	f.add(o)
	return o, nil
}

func (f *fakeRepository) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeRepository) ListByUser(_ context.Context, userID uuid.UUID, _ Pagination) ([]Order, int, error) {
	out := make([]Order, 0)
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepository) ListAll(_ context.Context, _ Pagination) ([]Order, int, error) {
	out := make([]Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeRepository) SetPaymentInfo(_ context.Context, id uuid.UUID, paymentID, paymentURL string) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.PaymentID = sql.NullString{String: paymentID, Valid: true}
	o.PaymentURL = sql.NullString{String: paymentURL, Valid: true}
	f.byPay[paymentID] = id
	return nil
}

func (f *fakeRepository) MarkPaidByPaymentID(_ context.Context, paymentID string) (*Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byPay[paymentID]
	if !ok {
		return nil, false, ErrInvalidWebhook
	}
	o := f.orders[id]
	if o.Status == StatusPending || o.Status == StatusProcessing {
		o.Status = StatusPaid
		copied := *o
		return &copied, true, nil
	}
	copied := *o
	return &copied, false, nil
}

func (f *fakeRepository) UpdateStatus(_ context.Context, id uuid.UUID, next Status) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}
	o.Status = next
	copied := *o
	return &copied, nil
}

type fakeProvider struct {
	resp *yookassa.CreatePaymentResponse
	err  error
	n    int
}

func (f *fakeProvider) CreatePayment(_ context.Context, _ yookassa.CreatePaymentRequest) (*yookassa.CreatePaymentResponse, error) {
	f.n++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeFeed struct {
	events []EventType
}

func (f *fakeFeed) PublishOrder(eventType EventType, _ *Order) {
	f.events = append(f.events, eventType)
}

func notification(paymentID, event, status string) yookassa.Notification {
	var n yookassa.Notification
	n.Event = event
	n.Object.ID = paymentID
	n.Object.Status = status
	return n
}

func TestCheckoutPublishesEvent(t *testing.T) {
	feed := &fakeFeed{}
	svc := NewServiceWithRepository(newFakeRepository(), &fakeProvider{}, feed)

	if _, err := svc.Checkout(context.Background(), uuid.New()); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(feed.events) != 1 || feed.events[0] != EventOrderCreated {
		t.Errorf("events = %v, want [order_created]", feed.events)
	}
}

func TestCheckoutSurfacesRepositoryErrors(t *testing.T) {
	repo := newFakeRepository()
	repo.checkoutErr = ErrEmptyCart
	svc := NewServiceWithRepository(repo, &fakeProvider{}, nil)

	_, err := svc.Checkout(context.Background(), uuid.New())
	if !errors.Is(err, ErrEmptyCart) {
		t.Errorf("err = %v, want ErrEmptyCart", err)
	}
}

func TestGetForUserHidesForeignOrders(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	o := &Order{ID: uuid.New(), UserID: owner, Status: StatusPending}
	repo.add(o)
	svc := NewServiceWithRepository(repo, &fakeProvider{}, nil)

	if _, err := svc.GetForUser(context.Background(), uuid.New(), o.ID, false); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("foreign order: err = %v, want ErrOrderNotFound", err)
	}
	if _, err := svc.GetForUser(context.Background(), owner, o.ID, false); err != nil {
		t.Errorf("own order: %v", err)
	}
	if _, err := svc.GetForUser(context.Background(), uuid.New(), o.ID, true); err != nil {
		t.Errorf("admin access: %v", err)
	}
}

func TestRequestPaymentStoresProviderInfo(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	o := &Order{ID: uuid.New(), UserID: owner, TotalAmount: decimal.RequireFromString("250.00"), Status: StatusPending}
	repo.add(o)

	provider := &fakeProvider{resp: &yookassa.CreatePaymentResponse{
		PaymentID:       "pay-1",
		ConfirmationURL: "https://yookassa.test/confirm",
		Status:          yookassa.StatusPending,
	}}
	svc := NewServiceWithRepository(repo, provider, nil)

	got, err := svc.RequestPayment(context.Background(), owner, o.ID, "https://shop.test/return")
	if err != nil {
		t.Fatalf("request payment: %v", err)
	}
	if !got.PaymentID.Valid || got.PaymentID.String != "pay-1" {
		t.Errorf("payment id = %+v, want pay-1", got.PaymentID)
	}
	if !got.PaymentURL.Valid || got.PaymentURL.String != "https://yookassa.test/confirm" {
		t.Errorf("payment url = %+v", got.PaymentURL)
	}
}

func TestRequestPaymentRejectsSettledOrders(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()

	paid := &Order{ID: uuid.New(), UserID: owner, Status: StatusPaid}
	cancelled := &Order{ID: uuid.New(), UserID: owner, Status: StatusCancelled}
	repo.add(paid)
	repo.add(cancelled)

	provider := &fakeProvider{}
	svc := NewServiceWithRepository(repo, provider, nil)

	if _, err := svc.RequestPayment(context.Background(), owner, paid.ID, ""); !errors.Is(err, ErrAlreadyPaid) {
		t.Errorf("paid order: err = %v, want ErrAlreadyPaid", err)
	}
	if _, err := svc.RequestPayment(context.Background(), owner, cancelled.ID, ""); !errors.Is(err, ErrOrderCancelled) {
		t.Errorf("cancelled order: err = %v, want ErrOrderCancelled", err)
	}
	if provider.n != 0 {
		t.Errorf("provider called %d times, want 0", provider.n)
	}
}

func TestRequestPaymentProviderFailureLeavesOrderUntouched(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	o := &Order{ID: uuid.New(), UserID: owner, TotalAmount: decimal.RequireFromString("90.00"), Status: StatusPending}
	repo.add(o)

	provider := &fakeProvider{err: yookassa.ErrProviderUnavailable}
	svc := NewServiceWithRepository(repo, provider, nil)

	_, err := svc.RequestPayment(context.Background(), owner, o.ID, "")
	if !errors.Is(err, yookassa.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}

	stored, _ := repo.GetByID(context.Background(), o.ID)
	if stored.PaymentID.Valid {
		t.Error("payment id stored despite provider failure")
	}
	if stored.Status != StatusPending {
		t.Errorf("status = %s, want pending", stored.Status)
	}
}

func TestHandlePaymentNotification(t *testing.T) {
	repo := newFakeRepository()
	owner := uuid.New()
	o := &Order{
		ID:          uuid.New(),
		UserID:      owner,
		TotalAmount: decimal.RequireFromString("100.00"),
		Status:      StatusPending,
		PaymentID:   sql.NullString{String: "pay-77", Valid: true},
	}
	repo.add(o)

	feed := &fakeFeed{}
	svc := NewServiceWithRepository(repo, &fakeProvider{}, feed)

	n := notification("pay-77", yookassa.EventPaymentSucceeded, yookassa.StatusSucceeded)
	if err := svc.HandlePaymentNotification(context.Background(), n); err != nil {
		t.Fatalf("first notification: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), o.ID)
	if stored.Status != StatusPaid {
		t.Fatalf("status = %s, want paid", stored.Status)
	}
	if len(feed.events) != 1 || feed.events[0] != EventOrderPaid {
		t.Errorf("events = %v, want [order_paid]", feed.events)
	}

	// replay is a no-op success and publishes nothing
	if err := svc.HandlePaymentNotification(context.Background(), n); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(feed.events) != 1 {
		t.Errorf("replay published an event: %v", feed.events)
	}
}

func TestHandlePaymentNotificationNoRegression(t *testing.T) {
	repo := newFakeRepository()
	o := &Order{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Status:    StatusShipped,
		PaymentID: sql.NullString{String: "pay-88", Valid: true},
	}
	repo.add(o)
	svc := NewServiceWithRepository(repo, &fakeProvider{}, nil)

	n := notification("pay-88", yookassa.EventPaymentSucceeded, yookassa.StatusSucceeded)
	if err := svc.HandlePaymentNotification(context.Background(), n); err != nil {
		t.Fatalf("late notification: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), o.ID)
	if stored.Status != StatusShipped {
		t.Errorf("status regressed to %s", stored.Status)
	}
}

func TestHandlePaymentNotificationRejectsBadPayloads(t *testing.T) {
	svc := NewServiceWithRepository(newFakeRepository(), &fakeProvider{}, nil)

	cases := []yookassa.Notification{
		notification("pay-unknown", yookassa.EventPaymentSucceeded, yookassa.StatusSucceeded),
		notification("pay-1", yookassa.EventPaymentSucceeded, yookassa.StatusCanceled),
		notification("pay-1", "payment.canceled", yookassa.StatusSucceeded),
		notification("", yookassa.EventPaymentSucceeded, yookassa.StatusSucceeded),
	}
	for i, n := range cases {
		if err := svc.HandlePaymentNotification(context.Background(), n); !errors.Is(err, ErrInvalidWebhook) {
			t.Errorf("case %d: err = %v, want ErrInvalidWebhook", i, err)
		}
	}
}

func TestUpdateStatusValidatesTransition(t *testing.T) {
	repo := newFakeRepository()
	o := &Order{ID: uuid.New(), UserID: uuid.New(), Status: StatusPending}
	repo.add(o)

	feed := &fakeFeed{}
	svc := NewServiceWithRepository(repo, &fakeProvider{}, feed)

	if _, err := svc.UpdateStatus(context.Background(), o.ID, StatusDelivered); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending->delivered: err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), o.ID, Status("bogus")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("bogus status: err = %v, want ErrInvalidTransition", err)
	}

	got, err := svc.UpdateStatus(context.Background(), o.ID, StatusProcessing)
	if err != nil {
		t.Fatalf("pending->processing: %v", err)
	}
	if got.Status != StatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
	if len(feed.events) != 1 || feed.events[0] != EventStatusChanged {
		t.Errorf("events = %v, want [status_changed]", feed.events)
	}
}
