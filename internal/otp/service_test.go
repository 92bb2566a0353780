package otp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/config"
	"github.com/oakline/oakline-backend/pkg/db/models"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
)

func setupOTPTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS otp_codes (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  code TEXT NOT NULL,
  is_verified INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type stubSender struct {
	err   error
	calls []sentOTP
}

type sentOTP struct {
	email    string
	name     string
	code     string
	template int
}

func (s *stubSender) SendOTP(ctx context.Context, email, name, code string, templateID int) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, sentOTP{email: email, name: name, code: code, template: templateID})
	return nil
}

func newTestService(t *testing.T, db *gorm.DB, sender *stubSender) *service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Sender: sender,
		Config: config.OTPConfig{TTL: 10 * time.Minute},
	})
	require.NoError(t, err)
	return svc.(*service)
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestIssueDeliversAndSupersedes(t *testing.T) {
	db := setupOTPTestDB(t)
	sender := &stubSender{}
	svc := newTestService(t, db, sender)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "User@Example.com", "Ada", 3))
	require.NoError(t, svc.Issue(ctx, "user@example.com", "Ada", 3))

	require.Len(t, sender.calls, 2)
	assert.Equal(t, "user@example.com", sender.calls[0].email)
	assert.Equal(t, 3, sender.calls[0].template)

	var rows []models.OTPCode
	require.NoError(t, db.Where("email = ?", "user@example.com").Find(&rows).Error)
	require.Len(t, rows, 1, "older unverified code must be superseded")
	assert.Equal(t, sender.calls[1].code, rows[0].Code)
}

func TestIssuePersistsNothingWhenDeliveryFails(t *testing.T) {
	db := setupOTPTestDB(t)
	sender := &stubSender{err: errors.New("smtp down")}
	svc := newTestService(t, db, sender)

	err := svc.Issue(context.Background(), "user@example.com", "Ada", 3)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.Equal(t, "failed to send code", typed.Message())

	var count int64
	require.NoError(t, db.Model(&models.OTPCode{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestVerifyHappyPath(t *testing.T) {
	db := setupOTPTestDB(t)
	sender := &stubSender{}
	svc := newTestService(t, db, sender)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "user@example.com", "Ada", 3))
	code := sender.calls[0].code

	require.NoError(t, svc.Verify(ctx, "user@example.com", code))

	verified, err := svc.HasVerified(ctx, "user@example.com")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestVerifyRejectsUnknownCode(t *testing.T) {
	db := setupOTPTestDB(t)
	svc := newTestService(t, db, &stubSender{})

	err := svc.Verify(context.Background(), "user@example.com", "000000")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestVerifyExpiredCodeDeletesRow(t *testing.T) {
	db := setupOTPTestDB(t)
	sender := &stubSender{}
	svc := newTestService(t, db, sender)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "user@example.com", "Ada", 3))
	code := sender.calls[0].code

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	err := svc.Verify(ctx, "user@example.com", code)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "verification code expired", typed.Message())

	var count int64
	require.NoError(t, db.Model(&models.OTPCode{}).Count(&count).Error)
	assert.Zero(t, count, "expired row must be removed")

	verified, err := svc.HasVerified(ctx, "user@example.com")
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestHasVerifiedSurvivesNewIssuance(t *testing.T) {
	db := setupOTPTestDB(t)
	sender := &stubSender{}
	svc := newTestService(t, db, sender)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "user@example.com", "Ada", 3))
	require.NoError(t, svc.Verify(ctx, "user@example.com", sender.calls[0].code))

	require.NoError(t, svc.Issue(ctx, "user@example.com", "Ada", 4))

	verified, err := svc.HasVerified(ctx, "user@example.com")
	require.NoError(t, err)
	assert.True(t, verified, "verified rows are not superseded")
}
