package wishlist

import (
	"time"

	"github.com/google/uuid"
)

// ItemDTO is one wishlist entry with its product summary.
type ItemDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

// AddResultDTO reports whether the add created a row or found a duplicate.
type AddResultDTO struct {
	Added   bool   `json:"added"`
	Message string `json:"message"`
}
