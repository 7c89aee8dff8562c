package admin

import (
	"time"

	"github.com/lavka/lavka-api/internal/domain/user"
)

// UpdateRoleRequest changes an account's role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// GrantBonusRequest credits or debits an account through the ledger
type GrantBonusRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Kind        string `json:"kind" validate:"required,bonus_kind"`
	Description string `json:"description" validate:"max=500"`
}

// UserResponse is the admin view of an account
type UserResponse struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	IsBlocked    bool      `json:"is_blocked"`
	BonusBalance string    `json:"bonus_balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToUserResponse converts an account to its admin API shape
func ToUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:           u.ID.String(),
		Login:        u.Login,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         string(u.Role),
		IsBlocked:    u.IsBlocked,
		BonusBalance: u.BonusBalance.StringFixed(2),
		CreatedAt:    u.CreatedAt,
	}
}

// LogResponse is one audit entry in API responses
type LogResponse struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"admin_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToLogResponse converts an audit entry
func ToLogResponse(entry *Log) LogResponse {
	resp := LogResponse{
		ID:         entry.ID.String(),
		AdminID:    entry.AdminID.String(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		CreatedAt:  entry.CreatedAt,
	}
	if entry.EntityID.Valid {
		resp.EntityID = entry.EntityID.UUID.String()
	}
	return resp
}
