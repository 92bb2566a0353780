package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductImage stores a URL reference to externally hosted product media.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:product_images_product_id_idx"`
	URL       string    `gorm:"column:url;not null"`
	AltText   *string   `gorm:"column:alt_text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
