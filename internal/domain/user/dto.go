package user

import "time"

// UpdateProfileRequest carries a partial profile update
type UpdateProfileRequest struct {
	Login *string `json:"login,omitempty" validate:"omitempty,min=3,max=64,alphanum"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,phone"`
}

// ProfileResponse is the account view returned to its owner
type ProfileResponse struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	IsBlocked    bool      `json:"is_blocked"`
	ReferralCode string    `json:"referral_code,omitempty"`
	BonusBalance string    `json:"bonus_balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToProfileResponse converts an entity to its API shape
func ToProfileResponse(u *User) ProfileResponse {
	resp := ProfileResponse{
		ID:           u.ID.String(),
		Login:        u.Login,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         string(u.Role),
		IsBlocked:    u.IsBlocked,
		BonusBalance: u.BonusBalance.StringFixed(2),
		CreatedAt:    u.CreatedAt,
	}
	if u.ReferralCode.Valid {
		resp.ReferralCode = u.ReferralCode.String
	}
	return resp
}
