package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// Repository defines user data access interface
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	SetResetCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error
	ClearResetCode(ctx context.Context, id uuid.UUID) error
	CreateReferral(ctx context.Context, referrerID, referredID uuid.UUID, bonusAmount decimal.Decimal) error
	List(ctx context.Context, limit, offset int) ([]User, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const userColumns = `
	id, login, email, phone, password_hash, role, is_blocked,
	referral_code, referrer_id, bonus_balance, reset_code, reset_code_exp,
	created_at, updated_at`

// Create inserts a new user. Uniqueness of login/email/phone is enforced by
// the unique indexes, so a race between two registrations yields exactly one
// success; the loser gets the matching duplicate error.
func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, login, email, phone, password_hash, role, is_blocked,
		                   referral_code, referrer_id, bonus_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Login,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.IsBlocked,
		user.ReferralCode,
		user.ReferrerID,
		user.BonusBalance,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch {
		case strings.Contains(pqErr.Constraint, "login"):
			return ErrLoginAlreadyExists
		case strings.Contains(pqErr.Constraint, "email"):
			return ErrEmailAlreadyExists
		case strings.Contains(pqErr.Constraint, "phone"):
			return ErrPhoneAlreadyExists
		}
	}
	return fmt.Errorf("user repository: %w", err)
}

func (r *repository) getBy(ctx context.Context, column string, value interface{}) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	var u User
	err := r.db.GetContext(ctx, &u, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user repository: get by %s: %w", column, err)
	}
	return &u, nil
}

// GetByID returns user by ID, nil when absent
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByLogin returns user by login, nil when absent
func (r *repository) GetByLogin(ctx context.Context, login string) (*User, error) {
	return r.getBy(ctx, "login", login)
}

// GetByEmail returns user by email, nil when absent
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByPhone returns user by phone, nil when absent
func (r *repository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.getBy(ctx, "phone", phone)
}

// GetByReferralCode returns the owner of a referral code, nil when absent
func (r *repository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	return r.getBy(ctx, "referral_code", code)
}

// UpdateProfile updates the mutable identity fields
func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET login = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, user.ID, user.Login, user.Email, user.Phone)
	if err != nil {
		return mapUniqueViolation(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash
func (r *repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.execOnUser(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
}

// UpdateRole changes the account role
func (r *repository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	return r.execOnUser(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`,
		id, role)
}

// SetBlocked blocks or unblocks the account
func (r *repository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	return r.execOnUser(ctx,
		`UPDATE users SET is_blocked = $2, updated_at = NOW() WHERE id = $1`,
		id, blocked)
}

// SetResetCode stores a password reset code with its expiry
func (r *repository) SetResetCode(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	return r.execOnUser(ctx,
		`UPDATE users SET reset_code = $2, reset_code_exp = $3, updated_at = NOW() WHERE id = $1`,
		id, code, expiresAt)
}

// ClearResetCode drops a consumed or expired reset code
func (r *repository) ClearResetCode(ctx context.Context, id uuid.UUID) error {
	return r.execOnUser(ctx,
		`UPDATE users SET reset_code = NULL, reset_code_exp = NULL, updated_at = NOW() WHERE id = $1`,
		id)
}

// CreateReferral records a referral link between two accounts
func (r *repository) CreateReferral(ctx context.Context, referrerID, referredID uuid.UUID, bonusAmount decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO referrals (id, referrer_id, referred_user_id, bonus_amount)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), referrerID, referredID, bonusAmount)
	if err != nil {
		return fmt.Errorf("user repository: create referral: %w", err)
	}
	return nil
}

// List returns users ordered by registration date, newest first
func (r *repository) List(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 20
	}
	users := make([]User, 0)
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, userColumns)
	if err := r.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, fmt.Errorf("user repository: list: %w", err)
	}
	return users, nil
}

func (r *repository) execOnUser(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("user repository: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
