package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/lavka/lavka-api/internal/domain/user"
)

// RegisterRequest for POST /auth/register
type RegisterRequest struct {
	Login        string `json:"login" validate:"required,min=3,max=64,alphanum"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Phone        string `json:"phone" validate:"required,phone"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	ReferralCode string `json:"referral_code" validate:"omitempty,len=16,hexadecimal"`
}

// LoginRequest for POST /auth/login. Identity may be a login, an email
// or a phone number.
type LoginRequest struct {
	Identity string `json:"identity" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest for POST /auth/refresh and /auth/logout
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest for POST /auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// ResetPasswordRequest for POST /auth/reset-password
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// AuthResponse returned after register/login/refresh
type AuthResponse struct {
	User   UserResponse   `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

// UserResponse represents an account in API responses
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	ReferralCode string    `json:"referral_code,omitempty"`
	BonusBalance string    `json:"bonus_balance"`
	CreatedAt    string    `json:"created_at"`
}

// TokensResponse represents tokens in API responses
type TokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds until access token expires
	TokenType    string `json:"token_type"`
}

// NewUserResponse builds UserResponse from the entity
func NewUserResponse(u *user.User) UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		Login:        u.Login,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         string(u.Role),
		BonusBalance: u.BonusBalance.StringFixed(2),
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
	if u.ReferralCode.Valid {
		resp.ReferralCode = u.ReferralCode.String
	}
	return resp
}
