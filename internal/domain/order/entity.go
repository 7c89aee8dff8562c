package order

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state
type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions holds the allowed lifecycle moves. Delivered and cancelled
// are terminal; paid is only reachable from pending and processing.
var transitions = map[Status][]Status{
	StatusPending:    {StatusPaid, StatusProcessing, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusShipped, StatusCancelled},
	StatusProcessing: {StatusPaid, StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transitions exist from s
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the move s -> next is allowed
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a placed order. The total is fixed at checkout from the prices
// read under the same locks that decremented stock.
type Order struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	Status      Status          `db:"status"`
	PaymentID   sql.NullString  `db:"payment_id"`
	PaymentURL  sql.NullString  `db:"payment_url"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Pagination bounds list queries
type Pagination struct {
	Limit  int
	Offset int
}
