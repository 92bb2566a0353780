package auth

import (
	"github.com/oakline/oakline-backend/internal/users"
)

// RegisterRequest carries the signup payload. The email must have passed
// code verification before registration is accepted.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// LoginRequest carries the credential pair.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse returns the signed token plus the profile it belongs to.
type AuthResponse struct {
	Token string        `json:"token"`
	User  users.UserDTO `json:"user"`
}

// UpdatePasswordRequest changes the caller's credential.
type UpdatePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UpdateProfileRequest carries partial profile edits. Nil fields are
// unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	ImageURL  *string `json:"image_url"`
}

// ResetPasswordRequest starts the email reset flow.
type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

// ResetPasswordConfirmRequest completes the reset with the mailed code.
type ResetPasswordConfirmRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
