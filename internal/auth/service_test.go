package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/internal/cart"
	"github.com/oakline/oakline-backend/internal/otp"
	"github.com/oakline/oakline-backend/internal/users"
	pkgauth "github.com/oakline/oakline-backend/pkg/auth"
	"github.com/oakline/oakline-backend/pkg/config"
	"github.com/oakline/oakline-backend/pkg/db/models"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  bio TEXT,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_staff INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	otpCodes := `
CREATE TABLE IF NOT EXISTS otp_codes (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  code TEXT NOT NULL,
  is_verified INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	for _, schema := range []string{usersTable, carts, otpCodes} {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

type stubSessions struct {
	generated []string
	revoked   []string
	genErr    error
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	if s.genErr != nil {
		return "", s.genErr
	}
	s.generated = append(s.generated, accessID)
	return "session-token", nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubMailSender struct {
	calls []string
}

func (s *stubMailSender) SendOTP(ctx context.Context, email, name, code string, templateID int) error {
	s.calls = append(s.calls, code)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "oakline",
		ExpirationMinutes: 15,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

type authFixture struct {
	svc      Service
	otp      otp.Service
	sender   *stubMailSender
	sessions *stubSessions
	db       *gorm.DB
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := setupAuthTestDB(t)
	sender := &stubMailSender{}
	otpSvc, err := otp.NewService(otp.ServiceParams{
		Repo:   otp.NewRepository(db),
		Sender: sender,
		Config: config.OTPConfig{TTL: 10 * time.Minute},
	})
	require.NoError(t, err)

	sessions := &stubSessions{}
	svc, err := NewService(ServiceParams{
		DB:             db,
		UserRepo:       users.NewRepository(db),
		CartRepo:       cart.NewRepository(db),
		OTP:            otpSvc,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
		BrevoConfig:    config.BrevoConfig{RegisterTemplateID: 3, ResetPasswordTemplate: 4},
	})
	require.NoError(t, err)
	return &authFixture{svc: svc, otp: otpSvc, sender: sender, sessions: sessions, db: db}
}

func (f *authFixture) verifyEmail(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.otp.Issue(ctx, email, "Ada", 3))
	code := f.sender.calls[len(f.sender.calls)-1]
	require.NoError(t, f.otp.Verify(ctx, email, code))
}

func TestRegisterRequiresVerifiedEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:     "ada@example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestRegisterCreatesUserAndCart(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.verifyEmail(t, "ada@example.com")

	resp, err := f.svc.Register(ctx, RegisterRequest{
		Email:     "Ada@Example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	require.Len(t, f.sessions.generated, 1)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, f.sessions.generated[0], claims.ID)

	var cartCount int64
	require.NoError(t, f.db.Model(&models.Cart{}).
		Where("user_id = ?", resp.User.ID).
		Count(&cartCount).Error)
	assert.EqualValues(t, 1, cartCount, "registration opens a cart")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.verifyEmail(t, "ada@example.com")

	req := RegisterRequest{
		Email:     "ada@example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
	_, err := f.svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, req)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestLoginVerifiesCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.verifyEmail(t, "ada@example.com")

	_, err := f.svc.Register(ctx, RegisterRequest{
		Email:     "ada@example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "wrong"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, invalidCredentialsMessage, typed.Message())

	_, err = f.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, invalidCredentialsMessage, typed.Message(), "unknown email answers like a bad password")
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.Logout(context.Background(), "access-123"))
	assert.Equal(t, []string{"access-123"}, f.sessions.revoked)

	err := f.svc.Logout(context.Background(), "  ")
	require.Error(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.verifyEmail(t, "ada@example.com")

	resp, err := f.svc.Register(ctx, RegisterRequest{
		Email:     "ada@example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)

	bio := "Analyst."
	updated, err := f.svc.UpdateProfile(ctx, resp.User.ID, UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "Analyst.", *updated.Bio)
	assert.Equal(t, "Ada", updated.FirstName, "untouched fields stay")

	me, err := f.svc.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, me.Bio)
	assert.Equal(t, "Analyst.", *me.Bio)
}

func TestUpdatePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.verifyEmail(t, "ada@example.com")

	resp, err := f.svc.Register(ctx, RegisterRequest{
		Email:     "ada@example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)

	err = f.svc.UpdatePassword(ctx, resp.User.ID, "access-1", UpdatePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "battery-staple",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	err = f.svc.UpdatePassword(ctx, resp.User.ID, "access-1", UpdatePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "battery-staple",
	})
	require.NoError(t, err)
	assert.Contains(t, f.sessions.revoked, "access-1")

	_, err = f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "battery-staple"})
	require.NoError(t, err)
}

func TestResetPasswordFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.verifyEmail(t, "ada@example.com")

	_, err := f.svc.Register(ctx, RegisterRequest{
		Email:     "ada@example.com",
		Password:  "correct-horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: "ada@example.com"}))
	code := f.sender.calls[len(f.sender.calls)-1]

	err = f.svc.ResetPasswordConfirm(ctx, ResetPasswordConfirmRequest{
		Email:       "ada@example.com",
		Code:        "000000",
		NewPassword: "battery-staple",
	})
	require.Error(t, err, "wrong code is rejected")

	require.NoError(t, f.svc.ResetPasswordConfirm(ctx, ResetPasswordConfirmRequest{
		Email:       "ada@example.com",
		Code:        code,
		NewPassword: "battery-staple",
	}))

	_, err = f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "battery-staple"})
	require.NoError(t, err)
}

func TestResetPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.ResetPassword(context.Background(), ResetPasswordRequest{Email: "nobody@example.com"}))
	assert.Empty(t, f.sender.calls, "no code mailed for unknown accounts")
}
