package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/internal/cart"
	"github.com/oakline/oakline-backend/internal/otp"
	"github.com/oakline/oakline-backend/internal/users"
	pkgauth "github.com/oakline/oakline-backend/pkg/auth"
	"github.com/oakline/oakline-backend/pkg/auth/session"
	"github.com/oakline/oakline-backend/pkg/config"
	"github.com/oakline/oakline-backend/pkg/db/models"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
	"github.com/oakline/oakline-backend/pkg/logger"
	"github.com/oakline/oakline-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*users.UserDTO, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, accessID string, req UpdatePasswordRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	ResetPasswordConfirm(ctx context.Context, req ResetPasswordConfirmRequest) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	DB             *gorm.DB
	UserRepo       *users.Repository
	CartRepo       *cart.Repository
	OTP            otp.Service
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	BrevoConfig    config.BrevoConfig
	Logger         *logger.Logger
}

type service struct {
	db      *gorm.DB
	users   *users.Repository
	carts   *cart.Repository
	otp     otp.Service
	session sessionManager
	jwtCfg  config.JWTConfig
	pwCfg   config.PasswordConfig
	brevo   config.BrevoConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db handle is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repository is required")
	}
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repository is required")
	}
	if params.OTP == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "otp service is required")
	}
	if params.SessionManager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session manager is required")
	}
	return &service{
		db:      params.DB,
		users:   params.UserRepo,
		carts:   params.CartRepo,
		otp:     params.OTP,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		pwCfg:   params.PasswordConfig,
		brevo:   params.BrevoConfig,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// Register creates the account once the email holds a verified code. The
// user row and their cart are created in one transaction.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	verified, err := s.otp.HasVerified(ctx, email)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email is not verified")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup email")
	}

	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.users.CreateTx(ctx, tx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		if _, err := s.carts.CreateCartTx(ctx, tx, created.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

// Login verifies the credential pair and opens a session.
func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	match, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.openSession(ctx, user)
}

// Logout revokes the session behind the presented token.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Me returns the caller's profile.
func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return users.FromModel(user), nil
}

// UpdateProfile applies the non-nil fields to the caller's profile.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*users.UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.users.UpdateProfile(ctx, userID, users.UpdateProfileDTO{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return users.FromModel(user), nil
}

// UpdatePassword rotates the caller's credential after checking the old one.
// The presented session is revoked so the client has to log in again.
func (s *service) UpdatePassword(ctx context.Context, userID uuid.UUID, accessID string, req UpdatePasswordRequest) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	match, err := security.VerifyPassword(req.OldPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "old password does not match")
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store password")
	}

	if strings.TrimSpace(accessID) != "" {
		if err := s.session.Revoke(ctx, accessID); err != nil && s.logg != nil {
			s.logg.Error(ctx, "auth.password.revoke_session", err)
		}
	}
	return nil
}

// ResetPassword mails a verification code for the reset flow. Unknown
// addresses are answered the same way to avoid account enumeration.
func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	name := strings.TrimSpace(req.Name)
	if user, err := s.users.FindByEmail(ctx, email); err == nil {
		if name == "" {
			name = user.FirstName
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	} else {
		if s.logg != nil {
			s.logg.Info(ctx, "auth.reset.unknown_email")
		}
		return nil
	}

	return s.otp.Issue(ctx, email, name, s.brevo.ResetPasswordTemplate)
}

// ResetPasswordConfirm verifies the mailed code and stores the new credential.
func (s *service) ResetPasswordConfirm(ctx context.Context, req ResetPasswordConfirmRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" || req.NewPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and new password are required")
	}

	if err := s.otp.Verify(ctx, email, req.Code); err != nil {
		return err
	}

	hash, err := security.HashPassword(req.NewPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	matched, err := s.users.UpdatePasswordHashByEmail(ctx, email, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store password")
	}
	if !matched {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return nil
}

func (s *service) openSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessID := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:  user.ID,
		Email:   user.Email,
		IsStaff: user.IsStaff,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	if _, err := s.session.Generate(ctx, accessID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}
	return &AuthResponse{Token: token, User: *users.FromModel(user)}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
