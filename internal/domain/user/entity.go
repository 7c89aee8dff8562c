package user

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role represents user role in the system
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a customer or admin account
type User struct {
	ID           uuid.UUID `db:"id"`
	Login        string    `db:"login"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	IsBlocked    bool      `db:"is_blocked"`

	// Referral program
	ReferralCode sql.NullString `db:"referral_code"`
	ReferrerID   uuid.NullUUID  `db:"referrer_id"`

	// Materialized bonus ledger total
	BonusBalance decimal.Decimal `db:"bonus_balance"`

	// Password reset
	ResetCode    sql.NullString `db:"reset_code"`
	ResetCodeExp sql.NullTime   `db:"reset_code_exp"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsAdmin returns true if user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if user is not blocked
func (u *User) IsActive() bool {
	return !u.IsBlocked
}

// IsValidRole checks if role is a known account role
func IsValidRole(role string) bool {
	return role == string(RoleUser) || role == string(RoleAdmin)
}

// NewReferralCode generates a shareable referral token (8 random bytes, hex)
func NewReferralCode() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()[:16]
	}
	return hex.EncodeToString(b)
}
