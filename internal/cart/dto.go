package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemDTO is one cart line with the live product snapshot.
type ItemDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	LineTotal float64   `json:"line_total"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
}

// CartDTO is the assembled cart view.
type CartDTO struct {
	Items         []ItemDTO `json:"items"`
	TotalQuantity int       `json:"total_quantity"`
	Subtotal      float64   `json:"subtotal"`
}

func lineTotal(unitPrice float64, quantity int) float64 {
	total := decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
	value, _ := total.Float64()
	return value
}
