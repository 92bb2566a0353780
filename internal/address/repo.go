package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/db/models"
)

// Repository encapsulates address book persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx runs fn inside one transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ListByUser returns the user's addresses, default first then newest.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("default_address DESC").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindOwned loads one address scoped to its owner.
func (r *Repository) FindOwned(ctx context.Context, tx *gorm.DB, userID, addressID uuid.UUID) (*models.Address, error) {
	var row models.Address
	err := r.conn(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CountByUser returns how many addresses the user holds.
func (r *Repository) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// ClearDefault drops the default flag on every address of the user.
func (r *Repository) ClearDefault(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND default_address = ?", userID, true).
		Update("default_address", false).Error
}

// Insert persists the address.
func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, row *models.Address) error {
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

// Update applies the given column map and returns the refreshed row.
func (r *Repository) Update(ctx context.Context, tx *gorm.DB, addressID uuid.UUID, updates map[string]any) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ?", addressID).
		Updates(updates).Error
}

// Delete removes an owned address, reporting whether a row matched.
func (r *Repository) Delete(ctx context.Context, tx *gorm.DB, userID, addressID uuid.UUID) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.Address{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// NewestByUser returns the user's most recent address, or nil when none remain.
func (r *Repository) NewestByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Address, error) {
	var row models.Address
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
