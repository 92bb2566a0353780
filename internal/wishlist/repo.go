package wishlist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether the user already likes the product.
func (r *Repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add inserts the wishlist entry.
func (r *Repository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	row := &models.WishlistItem{ID: uuid.New(), UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).Create(row).Error
}

// Remove deletes an owned entry by ID, reporting whether a row matched.
func (r *Repository) Remove(ctx context.Context, userID, entryID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// itemRecord joins a wishlist entry to its product summary.
type itemRecord struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Title     string
	Price     float64
	Stock     int
	CreatedAt time.Time
}

// ListByUser returns the user's entries newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]itemRecord, error) {
	var rows []itemRecord
	err := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select("wi.id, wi.product_id, p.title, p.price, p.stock, wi.created_at").
		Joins("JOIN products p ON p.id = wi.product_id").
		Where("wi.user_id = ?", userID).
		Order("wi.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
