package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/pkg/yookassa"
)

// PaymentProvider registers payments with the acquirer
type PaymentProvider interface {
	CreatePayment(ctx context.Context, req yookassa.CreatePaymentRequest) (*yookassa.CreatePaymentResponse, error)
}

// Publisher pushes order lifecycle events to the admin feed
type Publisher interface {
	PublishOrder(eventType EventType, o *Order)
}

// Service exposes order operations
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*Order, error)
	GetForUser(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, isAdmin bool) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Order, int, error)
	ListAll(ctx context.Context, pagination Pagination) ([]Order, int, error)
	RequestPayment(ctx context.Context, userID, orderID uuid.UUID, returnURL string) (*Order, error)
	HandlePaymentNotification(ctx context.Context, notification yookassa.Notification) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next Status) (*Order, error)
}

type service struct {
	repo     Repository
	payments PaymentProvider
	feed     Publisher
}

// NewService creates an order service backed by postgres
func NewService(db *sqlx.DB, payments PaymentProvider, feed Publisher) Service {
	return &service{repo: NewRepository(db), payments: payments, feed: feed}
}

// NewServiceWithRepository creates a service with an explicit repository
func NewServiceWithRepository(repo Repository, payments PaymentProvider, feed Publisher) Service {
	return &service{repo: repo, payments: payments, feed: feed}
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*Order, error) {
	o, err := s.repo.Checkout(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.publish(EventOrderCreated, o)
	return o, nil
}

// GetForUser returns the order if the caller owns it or is an admin.
// Foreign orders report not-found rather than forbidden.
func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Order, int, error) {
	return s.repo.ListByUser(ctx, userID, pagination)
}

func (s *service) ListAll(ctx context.Context, pagination Pagination) ([]Order, int, error) {
	return s.repo.ListAll(ctx, pagination)
}

// RequestPayment registers the order with the provider and stores the
// payment id and redirect URL. A provider failure leaves the order
// untouched, so the call can simply be retried.
func (s *service) RequestPayment(ctx context.Context, userID, orderID uuid.UUID, returnURL string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}

	switch o.Status {
	case StatusPaid, StatusShipped, StatusDelivered:
		return nil, ErrAlreadyPaid
	case StatusCancelled:
		return nil, ErrOrderCancelled
	}

	resp, err := s.payments.CreatePayment(ctx, yookassa.CreatePaymentRequest{
		Amount:      o.TotalAmount,
		Description: fmt.Sprintf("Order %s", o.ID),
		ReturnURL:   returnURL,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetPaymentInfo(ctx, o.ID, resp.PaymentID, resp.ConfirmationURL); err != nil {
		return nil, err
	}
	o.PaymentID.String = resp.PaymentID
	o.PaymentID.Valid = true
	o.PaymentURL.String = resp.ConfirmationURL
	o.PaymentURL.Valid = true
	return o, nil
}

// HandlePaymentNotification reconciles a provider webhook with the order.
// Replays and late notifications for already-settled orders succeed
// without touching anything; unknown payments and non-success statuses
// are rejected.
func (s *service) HandlePaymentNotification(ctx context.Context, notification yookassa.Notification) error {
	if notification.Object.ID == "" || !notification.Succeeded() {
		return ErrInvalidWebhook
	}

	o, changed, err := s.repo.MarkPaidByPaymentID(ctx, notification.Object.ID)
	if err != nil {
		return err
	}
	if changed {
		log.Info().
			Str("order_id", o.ID.String()).
			Str("payment_id", notification.Object.ID).
			Msg("order marked paid")
		s.publish(EventOrderPaid, o)
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next Status) (*Order, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	o, err := s.repo.UpdateStatus(ctx, orderID, next)
	if err != nil {
		return nil, err
	}
	s.publish(EventStatusChanged, o)
	return o, nil
}

func (s *service) publish(eventType EventType, o *Order) {
	if s.feed != nil {
		s.feed.PublishOrder(eventType, o)
	}
}
