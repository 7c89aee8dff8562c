package auth

import "errors"

var (
	ErrInvalidCredentials   = errors.New("invalid login or password")
	ErrUserBlocked          = errors.New("account is blocked")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidReferralCode  = errors.New("referral code not found")
	ErrInvalidResetCode     = errors.New("invalid or expired reset code")
)
