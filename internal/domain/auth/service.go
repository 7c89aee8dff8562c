package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/lavka/lavka-api/internal/domain/bonus"
	"github.com/lavka/lavka-api/internal/domain/user"
	"github.com/lavka/lavka-api/internal/pkg/jwt"
	"github.com/lavka/lavka-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	userRepo      user.Repository
	jwtService    *jwt.Service
	redis         *redis.Client // nil if Redis disabled
	bonuses       bonus.Service
	referralBonus decimal.Decimal
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, redis *redis.Client, bonuses bonus.Service, referralBonus decimal.Decimal) *Service {
	return &Service{
		userRepo:      userRepo,
		jwtService:    jwtService,
		redis:         redis,
		bonuses:       bonuses,
		referralBonus: referralBonus,
	}
}

// Register creates a new account. Uniqueness of login, email and phone is
// enforced by the database, so two racing registrations cannot both win.
// A valid referral code links the referrer and credits their signup bonus.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Login = strings.TrimSpace(req.Login)

	var referrer *user.User
	if req.ReferralCode != "" {
		var err error
		referrer, err = s.userRepo.GetByReferralCode(ctx, strings.ToLower(req.ReferralCode))
		if err != nil {
			return nil, err
		}
		if referrer == nil {
			return nil, ErrInvalidReferralCode
		}
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:           uuid.New(),
		Login:        req.Login,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         user.RoleUser,
		ReferralCode: sql.NullString{String: user.NewReferralCode(), Valid: true},
		BonusBalance: decimal.Zero,
	}
	if referrer != nil {
		u.ReferrerID = uuid.NullUUID{UUID: referrer.ID, Valid: true}
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	if referrer != nil {
		s.rewardReferrer(ctx, referrer.ID, u.ID)
	}

	return s.generateTokens(ctx, u)
}

// rewardReferrer records the referral and credits the bonus. The signup
// itself already committed, so a failure here is an operator concern, not
// a registration failure.
func (s *Service) rewardReferrer(ctx context.Context, referrerID, referredID uuid.UUID) {
	if err := s.userRepo.CreateReferral(ctx, referrerID, referredID, s.referralBonus); err != nil {
		log.Error().Err(err).
			Str("referrer_id", referrerID.String()).
			Str("referred_id", referredID.String()).
			Msg("failed to record referral")
		return
	}
	if s.bonuses == nil || s.referralBonus.LessThanOrEqual(decimal.Zero) {
		return
	}
	if _, err := s.bonuses.Apply(ctx, referrerID, s.referralBonus, bonus.KindCredit, "referral bonus"); err != nil {
		log.Error().Err(err).
			Str("referrer_id", referrerID.String()).
			Msg("failed to credit referral bonus")
	}
}

// Login authenticates by login, email or phone. Unknown identities and
// wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.findByIdentity(ctx, strings.TrimSpace(req.Identity))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if u.IsBlocked {
		return nil, ErrUserBlocked
	}

	return s.generateTokens(ctx, u)
}

func (s *Service) findByIdentity(ctx context.Context, identity string) (*user.User, error) {
	switch {
	case strings.Contains(identity, "@"):
		return s.userRepo.GetByEmail(ctx, normalizeEmail(identity))
	case strings.HasPrefix(identity, "+"):
		return s.userRepo.GetByPhone(ctx, identity)
	default:
		return s.userRepo.GetByLogin(ctx, identity)
	}
}

// Refresh rotates the refresh token and returns a fresh token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	userID, err := s.getRefreshToken(ctx, refreshHash)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if u.IsBlocked {
		_ = s.deleteRefreshToken(ctx, refreshHash)
		return nil, ErrUserBlocked
	}

	// rotation: the old token is dead once used
	_ = s.deleteRefreshToken(ctx, refreshHash)

	return s.generateTokens(ctx, u)
}

// Logout invalidates the refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.deleteRefreshToken(ctx, jwt.HashRefreshToken(refreshToken))
}

// GetCurrentUser returns the account behind a token
func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	resp := NewUserResponse(u)
	return &resp, nil
}

// ForgotPassword issues a short-lived reset code and mails it. An unknown
// email gets the same outward behavior as a known one.
func (s *Service) ForgotPassword(ctx context.Context, email string, mailer Mailer) error {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || u == nil {
		return nil
	}

	code := generateNumericCode(resetCodeLength)
	if err := s.userRepo.SetResetCode(ctx, u.ID, code, time.Now().Add(resetCodeTTL)); err != nil {
		return err
	}

	if mailer != nil {
		if err := mailer.SendPasswordResetCode(ctx, u.Email, code); err != nil {
			log.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to send reset code")
		}
	}
	return nil
}

// ResetPassword verifies the emailed code and replaces the password. All
// refresh sessions of the account are revoked afterwards.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil || u == nil {
		return ErrInvalidResetCode
	}

	if !u.ResetCode.Valid || u.ResetCode.String != req.Code {
		return ErrInvalidResetCode
	}
	if !u.ResetCodeExp.Valid || time.Now().After(u.ResetCodeExp.Time) {
		return ErrInvalidResetCode
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}
	if err := s.userRepo.ClearResetCode(ctx, u.ID); err != nil {
		log.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to clear reset code")
	}
	return nil
}

// Mailer delivers the password reset code
type Mailer interface {
	SendPasswordResetCode(ctx context.Context, to, code string) error
}

// generateTokens creates the access/refresh pair and stores hash(refresh)
// in Redis for the refresh TTL
func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role), u.IsBlocked)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	if err := s.storeRefreshToken(ctx, refreshHash, u.ID); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User: NewUserResponse(u),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:    "Bearer",
		},
	}, nil
}

func (s *Service) storeRefreshToken(ctx context.Context, tokenHash string, userID uuid.UUID) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Set(ctx, "refresh:"+tokenHash, userID.String(), s.jwtService.GetRefreshTTL()).Err()
}

func (s *Service) getRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	if s.redis == nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	val, err := s.redis.Get(ctx, "refresh:"+tokenHash).Result()
	if err != nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	return uuid.Parse(val)
}

func (s *Service) deleteRefreshToken(ctx context.Context, tokenHash string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, "refresh:"+tokenHash).Err()
}
