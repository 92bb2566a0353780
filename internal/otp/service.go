package otp

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/config"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
	"github.com/oakline/oakline-backend/pkg/logger"
	"github.com/oakline/oakline-backend/pkg/mailer"
)

// ServiceParams groups dependencies for the OTP service.
type ServiceParams struct {
	Repo   *Repository
	Sender mailer.Sender
	Config config.OTPConfig
	Logger *logger.Logger
}

// Service issues and verifies one-time email codes.
type Service interface {
	Issue(ctx context.Context, email, name string, templateID int) error
	Verify(ctx context.Context, email, code string) error
	HasVerified(ctx context.Context, email string) (bool, error)
}

type service struct {
	repo   *Repository
	sender mailer.Sender
	ttl    time.Duration
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds an OTP service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "otp repo is required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mail sender is required")
	}
	ttl := params.Config.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &service{
		repo:   params.Repo,
		sender: params.Sender,
		ttl:    ttl,
		logg:   params.Logger,
		now:    time.Now,
	}, nil
}

// Issue generates a fresh code and delivers it. Nothing is persisted unless
// delivery succeeds, so a failed send never invalidates an outstanding code.
func (s *service) Issue(ctx context.Context, email, name string, templateID int) error {
	email = normalizeEmail(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	code, err := generateCode()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}

	if err := s.sender.SendOTP(ctx, email, name, code, templateID); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "otp delivery failed", err)
		}
		return pkgerrors.New(pkgerrors.CodeDependency, "failed to send code")
	}

	if err := s.repo.Supersede(ctx, email, name, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist code")
	}
	return nil
}

// Verify checks the newest matching code, deleting it when expired.
func (s *service) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and code are required")
	}

	row, err := s.repo.FindNewestMatch(ctx, email, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeConflict, "invalid verification code")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load code")
	}

	if s.now().Sub(row.CreatedAt) > s.ttl {
		if err := s.repo.Delete(ctx, row.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire code")
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "verification code expired")
	}

	if err := s.repo.MarkVerified(ctx, row.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark verified")
	}
	return nil
}

// HasVerified reports whether the email completed verification at any point.
func (s *service) HasVerified(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return s.repo.HasVerified(ctx, email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
