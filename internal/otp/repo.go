package otp

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/db/models"
)

// Repository encapsulates OTP persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an OTP repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Supersede removes every unverified prior code for the email and inserts the
// new one, atomically. Verified rows survive so historical verification holds.
func (r *Repository) Supersede(ctx context.Context, email, name, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("email = ? AND is_verified = ?", email, false).
			Delete(&models.OTPCode{}).Error; err != nil {
			return err
		}
		row := &models.OTPCode{
			ID:    uuid.New(),
			Email: email,
			Name:  name,
			Code:  code,
		}
		return tx.Create(row).Error
	})
}

// FindNewestMatch returns the most recent row matching email and code.
func (r *Repository) FindNewestMatch(ctx context.Context, email, code string) (*models.OTPCode, error) {
	var row models.OTPCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkVerified flips the verification flag for the row.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OTPCode{}).
		Where("id = ?", id).
		UpdateColumn("is_verified", true).Error
}

// Delete removes the row; used when a code turns out to be expired.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.OTPCode{}, "id = ?", id).Error
}

// HasVerified reports whether any historical row for the email is verified.
func (r *Repository) HasVerified(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OTPCode{}).
		Where("email = ? AND is_verified = ?", email, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
