package bonus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const queryTimeout = 3 * time.Second

// Repository provides bonus ledger and balance operations
type Repository interface {
	Apply(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, kind Kind, description string) (*Transaction, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ListByUser(ctx context.Context, userID uuid.UUID, p Pagination) ([]Transaction, error)
	SumByKind(ctx context.Context, userID uuid.UUID, kind Kind) (decimal.Decimal, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a bonus ledger repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Apply records a ledger transaction and adjusts the materialized balance as
// a single atomic unit. The account row is locked FOR UPDATE, so two
// concurrent calls on the same account serialize and a debit can never
// overdraw the balance.
func (r *repository) Apply(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, kind Kind, description string) (*Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx2, `SELECT bonus_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: lock user row", ErrInternal)
	}

	delta := amount
	if kind == KindDebit {
		if balance.LessThan(amount) {
			return nil, ErrInsufficientBalance
		}
		delta = amount.Neg()
	}

	_, err = tx.ExecContext(ctx2, `UPDATE users SET bonus_balance = bonus_balance + $2, updated_at = NOW() WHERE id = $1`, userID, delta)
	if err != nil {
		return nil, fmt.Errorf("%w: update balance", ErrInternal)
	}

	txn := &Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		CreatedAt:   time.Now(),
	}
	_, err = tx.ExecContext(ctx2, `
		INSERT INTO bonus_transactions (id, user_id, amount, kind, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, txn.ID, txn.UserID, txn.Amount, txn.Kind, txn.Description, txn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert transaction", ErrInternal)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return txn, nil
}

// GetBalance returns the materialized bonus balance
func (r *repository) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance decimal.Decimal
	err := r.db.GetContext(ctx2, &balance, `SELECT bonus_balance FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("%w: get balance", ErrInternal)
	}
	return balance, nil
}

// ListByUser returns the account's ledger, newest first
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, p Pagination) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT id, user_id, amount, kind, description, created_at
		FROM bonus_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}
	return transactions, nil
}

// SumByKind totals one side of the ledger for an account
func (r *repository) SumByKind(ctx context.Context, userID uuid.UUID, kind Kind) (decimal.Decimal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum decimal.Decimal
	err := r.db.GetContext(ctx2, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM bonus_transactions
		WHERE user_id = $1 AND kind = $2
	`, userID, kind)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: sum transactions", ErrInternal)
	}
	return sum, nil
}
