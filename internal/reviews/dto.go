package reviews

import (
	"time"

	"github.com/google/uuid"
)

// ReviewDTO is the API shape of one product review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Reviewer  string    `json:"reviewer"`
	Rating    float64   `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput carries a new review. One review per user and product.
type CreateInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    float64   `json:"rating" validate:"required,gte=1,lte=5"`
	Body      string    `json:"body" validate:"required"`
}
