package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Repository defines order data access
type Repository interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Order, int, error)
	ListAll(ctx context.Context, pagination Pagination) ([]Order, int, error)
	SetPaymentInfo(ctx context.Context, id uuid.UUID, paymentID, paymentURL string) error
	MarkPaidByPaymentID(ctx context.Context, paymentID string) (*Order, bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Order, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates an order repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, total_amount, status, payment_id, payment_url, created_at`

type cartLine struct {
	ProductID uuid.UUID `db:"product_id"`
	Quantity  int       `db:"quantity"`
}

type lockedProduct struct {
	ID    uuid.UUID       `db:"id"`
	Name  string          `db:"name"`
	Price decimal.Decimal `db:"price"`
	Stock int             `db:"stock"`
}

// Checkout turns the user's cart into a pending order inside a single
// transaction. Products are locked in id order so concurrent checkouts of
// disjoint carts never wait on each other; the stock decrement carries its
// own guard so a shortfall can never be committed. The cart is left intact.
func (r *repository) Checkout(ctx context.Context, userID uuid.UUID) (*Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("order repository: begin tx: %w", err)
	}
	defer tx.Rollback()

	lines := make([]cartLine, 0)
	err = tx.SelectContext(ctx, &lines,
		`SELECT product_id, quantity FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("order repository: read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	wanted := make(map[uuid.UUID]int, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		wanted[line.ProductID] = line.Quantity
		ids = append(ids, line.ProductID.String())
	}

	locked := make([]lockedProduct, 0, len(lines))
	err = tx.SelectContext(ctx, &locked, `
		SELECT id, name, price, stock FROM products
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("order repository: lock products: %w", err)
	}
	if len(locked) != len(lines) {
		// a cart line survived its product; FK cascade makes this rare
		return nil, fmt.Errorf("%w: product no longer available", ErrInsufficientStock)
	}

	total := decimal.Zero
	for _, p := range locked {
		qty := wanted[p.ID]
		if p.Stock < qty {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
	}

	for _, p := range locked {
		qty := wanted[p.ID]
		result, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = NOW()
			WHERE id = $1 AND stock >= $2
		`, p.ID, qty)
		if err != nil {
			return nil, fmt.Errorf("order repository: decrement stock: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("order repository: rows affected: %w", err)
		}
		if rows == 0 {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
		}
	}

	o := &Order{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: total,
		Status:      StatusPending,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, o.ID, o.UserID, o.TotalAmount, o.Status).Scan(&o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("order repository: insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("order repository: commit: %w", err)
	}
	return o, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)
	if err := r.db.GetContext(ctx, &o, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get: %w", err)
	}
	return &o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Order, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("order repository: count: %w", err)
	}

	orders := make([]Order, 0)
	query := fmt.Sprintf(`
		SELECT %s FROM orders WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, orderColumns)
	if err := r.db.SelectContext(ctx, &orders, query, userID, pagination.Limit, pagination.Offset); err != nil {
		return nil, 0, fmt.Errorf("order repository: list by user: %w", err)
	}
	return orders, total, nil
}

func (r *repository) ListAll(ctx context.Context, pagination Pagination) ([]Order, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders`); err != nil {
		return nil, 0, fmt.Errorf("order repository: count: %w", err)
	}

	orders := make([]Order, 0)
	query := fmt.Sprintf(`
		SELECT %s FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, orderColumns)
	if err := r.db.SelectContext(ctx, &orders, query, pagination.Limit, pagination.Offset); err != nil {
		return nil, 0, fmt.Errorf("order repository: list all: %w", err)
	}
	return orders, total, nil
}

func (r *repository) SetPaymentInfo(ctx context.Context, id uuid.UUID, paymentID, paymentURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_id = $2, payment_url = $3 WHERE id = $1`,
		id, paymentID, paymentURL)
	if err != nil {
		return fmt.Errorf("order repository: set payment info: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkPaidByPaymentID flips an order to paid. The guard in SQL makes
// replayed and out-of-order notifications no-ops: only pending and
// processing orders move, anything later keeps its status. The bool
// reports whether this call changed the row.
func (r *repository) MarkPaidByPaymentID(ctx context.Context, paymentID string) (*Order, bool, error) {
	var o Order
	query := fmt.Sprintf(`
		UPDATE orders SET status = $2
		WHERE payment_id = $1 AND status IN ('pending', 'processing')
		RETURNING %s
	`, orderColumns)
	err := r.db.GetContext(ctx, &o, query, paymentID, StatusPaid)
	if err == nil {
		return &o, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("order repository: mark paid: %w", err)
	}

	// nothing moved: either an unknown payment or a replay
	query = fmt.Sprintf(`SELECT %s FROM orders WHERE payment_id = $1`, orderColumns)
	err = r.db.GetContext(ctx, &o, query, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrInvalidWebhook
		}
		return nil, false, fmt.Errorf("order repository: lookup payment: %w", err)
	}
	return &o, false, nil
}

// UpdateStatus validates the move against the lifecycle under a row lock
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("order repository: begin tx: %w", err)
	}
	defer tx.Rollback()

	var o Order
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 FOR UPDATE`, orderColumns)
	if err := tx.GetContext(ctx, &o, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get for update: %w", err)
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, next); err != nil {
		return nil, fmt.Errorf("order repository: update status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("order repository: commit: %w", err)
	}

	o.Status = next
	return &o, nil
}
