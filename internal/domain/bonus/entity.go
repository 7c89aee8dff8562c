package bonus

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind defines the ledger transaction direction
type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

// IsValid reports whether the kind is one of the two ledger directions
func (k Kind) IsValid() bool {
	return k == KindCredit || k == KindDebit
}

// Transaction is an append-only bonus ledger row. Amount is always positive;
// the direction is carried by Kind.
type Transaction struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	Amount      decimal.Decimal `db:"amount"`
	Kind        Kind            `db:"kind"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Pagination controls simple list pagination
type Pagination struct {
	Limit  int
	Offset int
}
