package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPCode is one issued verification code. Rows expire lazily; verified rows
// are kept so historical verification remains provable.
type OTPCode struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email      string    `gorm:"column:email;not null;index:otp_codes_email_idx"`
	Name       string    `gorm:"column:name"`
	Code       string    `gorm:"column:code;not null"`
	IsVerified bool      `gorm:"column:is_verified;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
