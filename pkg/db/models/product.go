package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog listing.
type Product struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Title       string         `gorm:"column:title;not null;index:products_title_idx"`
	Description string         `gorm:"column:description;not null"`
	SKU         *string        `gorm:"column:sku"`
	Price       float64        `gorm:"column:price;not null"`
	Discount    float64        `gorm:"column:discount;not null;default:0"`
	Rating      float64        `gorm:"column:rating;not null;default:0"`
	ReviewCount int            `gorm:"column:review_count;not null;default:0"`
	Stock       int            `gorm:"column:stock;not null;default:0"`
	Sold        int            `gorm:"column:sold;not null;default:0"`
	Weight      *float64       `gorm:"column:weight"`
	CategoryID  *uuid.UUID     `gorm:"column:category_id;type:uuid;index:products_category_id_idx"`
	Images      []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
