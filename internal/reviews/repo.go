package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/db/models"
	"github.com/oakline/oakline-backend/pkg/pagination"
)

// Repository encapsulates review persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reviews repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether the user already reviewed the product.
func (r *Repository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert persists the review and bumps the product's aggregates in one
// transaction.
func (r *Repository) Insert(ctx context.Context, row *models.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return r.refreshAggregates(tx, row.ProductID)
	})
}

// refreshAggregates recomputes the product's rating and review count from
// the stored rows.
func (r *Repository) refreshAggregates(tx *gorm.DB, productID uuid.UUID) error {
	var agg struct {
		Count  int64
		Rating float64
	}
	err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS rating").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"rating":       agg.Rating,
			"review_count": agg.Count,
		}).Error
}

// reviewRecord joins a review to its author's display name.
type reviewRecord struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Rating    float64
	Body      string
	CreatedAt time.Time
}

// ListByProduct returns one page of reviews for the product, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, page pagination.Page) ([]reviewRecord, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ?", productID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []reviewRecord
	err = r.db.WithContext(ctx).
		Table("reviews rv").
		Select("rv.id, rv.product_id, rv.user_id, u.first_name, u.last_name, rv.rating, rv.body, rv.created_at").
		Joins("JOIN users u ON u.id = rv.user_id").
		Where("rv.product_id = ?", productID).
		Order("rv.created_at DESC").
		Offset(page.Offset).
		Limit(page.Size).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
