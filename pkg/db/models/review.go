package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is one rating/body pair per (user, product).
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:reviews_user_product_key"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:reviews_product_id_idx;uniqueIndex:reviews_user_product_key"`
	Body      string    `gorm:"column:body;not null"`
	Rating    float64   `gorm:"column:rating;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
