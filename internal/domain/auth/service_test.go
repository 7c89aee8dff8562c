package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lavka/lavka-api/internal/domain/bonus"
	"github.com/lavka/lavka-api/internal/domain/user"
	"github.com/lavka/lavka-api/internal/pkg/jwt"
	"github.com/lavka/lavka-api/internal/pkg/password"
)

type fakeUserRepo struct {
	users     map[uuid.UUID]*user.User
	referrals []referralRecord
}

type referralRecord struct {
	referrerID uuid.UUID
	referredID uuid.UUID
	amount     decimal.Decimal
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range f.users {
		if existing.Login == u.Login {
			return user.ErrLoginAlreadyExists
		}
		if existing.Email == u.Email {
			return user.ErrEmailAlreadyExists
		}
		if existing.Phone == u.Phone {
			return user.ErrPhoneAlreadyExists
		}
	}
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByLogin(_ context.Context, login string) (*user.User, error) {
	return f.findBy(func(u *user.User) bool { return u.Login == login })
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	return f.findBy(func(u *user.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*user.User, error) {
	return f.findBy(func(u *user.User) bool { return u.Phone == phone })
}

func (f *fakeUserRepo) GetByReferralCode(_ context.Context, code string) (*user.User, error) {
	return f.findBy(func(u *user.User) bool { return u.ReferralCode.Valid && u.ReferralCode.String == code })
}

// findBy mirrors the sqlx repository contract: absent rows yield (nil, nil).
func (f *fakeUserRepo) findBy(match func(*user.User) bool) (*user.User, error) {
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, u *user.User) error {
	stored, ok := f.users[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}
	stored.Login = u.Login
	stored.Email = u.Email
	stored.Phone = u.Phone
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role user.Role) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) SetBlocked(_ context.Context, id uuid.UUID, blocked bool) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.IsBlocked = blocked
	return nil
}

func (f *fakeUserRepo) SetResetCode(_ context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.ResetCode = sql.NullString{String: code, Valid: true}
	u.ResetCodeExp = sql.NullTime{Time: expiresAt, Valid: true}
	return nil
}

func (f *fakeUserRepo) ClearResetCode(_ context.Context, id uuid.UUID) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.ResetCode = sql.NullString{}
	u.ResetCodeExp = sql.NullTime{}
	return nil
}

func (f *fakeUserRepo) CreateReferral(_ context.Context, referrerID, referredID uuid.UUID, bonusAmount decimal.Decimal) error {
	f.referrals = append(f.referrals, referralRecord{referrerID, referredID, bonusAmount})
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, _, _ int) ([]user.User, error) {
	out := make([]user.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

type fakeBonusService struct {
	credits []decimal.Decimal
}

func (f *fakeBonusService) Apply(_ context.Context, _ uuid.UUID, amount decimal.Decimal, kind bonus.Kind, _ string) (*bonus.Transaction, error) {
	if kind == bonus.KindCredit {
		f.credits = append(f.credits, amount)
	}
	return &bonus.Transaction{ID: uuid.New(), Amount: amount, Kind: kind}, nil
}

func (f *fakeBonusService) GetBalance(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeBonusService) ListTransactions(_ context.Context, _ uuid.UUID, _, _ int) ([]bonus.Transaction, error) {
	return nil, nil
}

func newTestService(repo user.Repository, bonuses bonus.Service) *Service {
	jwtService := jwt.NewService("test-secret", 15*time.Minute, 7*24*time.Hour)
	return NewService(repo, jwtService, nil, bonuses, decimal.RequireFromString("100"))
}

func registerReq(login string) *RegisterRequest {
	return &RegisterRequest{
		Login:    login,
		Email:    login + "@test.com",
		Phone:    "+79001234567",
		Password: "secret-password",
	}
}

func TestRegisterIssuesTokens(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, nil)

	resp, err := svc.Register(context.Background(), registerReq("alice"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Error("tokens missing from response")
	}
	if resp.User.Login != "alice" {
		t.Errorf("login = %s", resp.User.Login)
	}
	if resp.User.ReferralCode == "" {
		t.Error("new account has no referral code")
	}
	if resp.User.Role != "user" {
		t.Errorf("role = %s, want user", resp.User.Role)
	}
}

func TestRegisterDuplicateMapping(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, nil)

	if _, err := svc.Register(context.Background(), registerReq("bob")); err != nil {
		t.Fatalf("first register: %v", err)
	}

	req := registerReq("bob")
	req.Phone = "+79009999999"
	if _, err := svc.Register(context.Background(), req); !errors.Is(err, user.ErrLoginAlreadyExists) {
		t.Errorf("duplicate login: err = %v", err)
	}
}

func TestRegisterWithReferralCode(t *testing.T) {
	repo := newFakeUserRepo()
	bonuses := &fakeBonusService{}
	svc := newTestService(repo, bonuses)

	referrerResp, err := svc.Register(context.Background(), registerReq("carol"))
	if err != nil {
		t.Fatalf("register referrer: %v", err)
	}

	req := registerReq("dave")
	req.Phone = "+79005554433"
	req.ReferralCode = referrerResp.User.ReferralCode
	resp, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("register referred: %v", err)
	}

	if len(repo.referrals) != 1 {
		t.Fatalf("referrals recorded = %d, want 1", len(repo.referrals))
	}
	rec := repo.referrals[0]
	if rec.referrerID != referrerResp.User.ID || rec.referredID != resp.User.ID {
		t.Errorf("referral links wrong accounts: %+v", rec)
	}
	if len(bonuses.credits) != 1 || !bonuses.credits[0].Equal(decimal.RequireFromString("100")) {
		t.Errorf("referrer credits = %v, want one credit of 100", bonuses.credits)
	}

	stored, _ := repo.GetByID(context.Background(), resp.User.ID)
	if !stored.ReferrerID.Valid || stored.ReferrerID.UUID != referrerResp.User.ID {
		t.Errorf("referrer_id not linked: %+v", stored.ReferrerID)
	}
}

func TestRegisterRejectsUnknownReferralCode(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, nil)

	req := registerReq("erin")
	req.ReferralCode = "deadbeefdeadbeef"
	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrInvalidReferralCode) {
		t.Errorf("err = %v, want ErrInvalidReferralCode", err)
	}
	if len(repo.users) != 0 {
		t.Errorf("accounts created = %d, want none", len(repo.users))
	}
}

func TestLoginByLoginEmailAndPhone(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, nil)

	if _, err := svc.Register(context.Background(), registerReq("frank")); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, identity := range []string{"frank", "frank@test.com", "+79001234567"} {
		resp, err := svc.Login(context.Background(), &LoginRequest{Identity: identity, Password: "secret-password"})
		if err != nil {
			t.Errorf("login by %q: %v", identity, err)
			continue
		}
		if resp.User.Login != "frank" {
			t.Errorf("login by %q returned %s", identity, resp.User.Login)
		}
	}
}

func TestLoginUniformFailure(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, nil)

	if _, err := svc.Register(context.Background(), registerReq("grace")); err != nil {
		t.Fatalf("register: %v", err)
	}

	// unknown identity and wrong password are indistinguishable
	_, errUnknown := svc.Login(context.Background(), &LoginRequest{Identity: "nobody", Password: "whatever"})
	_, errWrongPass := svc.Login(context.Background(), &LoginRequest{Identity: "grace", Password: "wrong"})

	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrongPass, ErrInvalidCredentials) {
		t.Errorf("errs = %v / %v, both must be ErrInvalidCredentials", errUnknown, errWrongPass)
	}
}

func TestLoginBlockedAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, nil)

	resp, err := svc.Register(context.Background(), registerReq("heidi"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := repo.SetBlocked(context.Background(), resp.User.ID, true); err != nil {
		t.Fatalf("block: %v", err)
	}

	_, err = svc.Login(context.Background(), &LoginRequest{Identity: "heidi", Password: "secret-password"})
	if !errors.Is(err, ErrUserBlocked) {
		t.Errorf("err = %v, want ErrUserBlocked", err)
	}
}

func TestRefreshWithoutRedis(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), nil)

	if _, err := svc.Refresh(context.Background(), "sometoken"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("err = %v, want ErrInvalidRefreshToken", err)
	}
	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrRefreshTokenRequired) {
		t.Errorf("err = %v, want ErrRefreshTokenRequired", err)
	}
}

type fakeMailer struct {
	to   string
	code string
}

func (f *fakeMailer) SendPasswordResetCode(_ context.Context, to, code string) error {
	f.to = to
	f.code = code
	return nil
}

func TestPasswordResetFlow(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, nil)

	resp, err := svc.Register(context.Background(), registerReq("ivan"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	mailer := &fakeMailer{}
	if err := svc.ForgotPassword(context.Background(), "ivan@test.com", mailer); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if mailer.to != "ivan@test.com" || len(mailer.code) != resetCodeLength {
		t.Fatalf("mailer got to=%q code=%q", mailer.to, mailer.code)
	}

	err = svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email:       "ivan@test.com",
		Code:        mailer.code,
		NewPassword: "brand-new-password",
	})
	if err != nil {
		t.Fatalf("reset password: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), resp.User.ID)
	if !password.Verify("brand-new-password", stored.PasswordHash) {
		t.Error("password was not updated")
	}
	if stored.ResetCode.Valid {
		t.Error("reset code not cleared")
	}

	// code is single-use
	err = svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email:       "ivan@test.com",
		Code:        mailer.code,
		NewPassword: "another-password",
	})
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("reused code: err = %v, want ErrInvalidResetCode", err)
	}
}

func TestResetPasswordExpiredCode(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo, nil)

	resp, err := svc.Register(context.Background(), registerReq("judy"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := repo.SetResetCode(context.Background(), resp.User.ID, "123456", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	err = svc.ResetPassword(context.Background(), &ResetPasswordRequest{
		Email:       "judy@test.com",
		Code:        "123456",
		NewPassword: "whatever-new",
	})
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("err = %v, want ErrInvalidResetCode", err)
	}
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	svc := newTestService(newFakeUserRepo(), nil)

	mailer := &fakeMailer{}
	if err := svc.ForgotPassword(context.Background(), "nobody@test.com", mailer); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if mailer.to != "" {
		t.Error("mail sent for unknown email")
	}
}
