package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakline/oakline-backend/pkg/db/models"
	"github.com/oakline/oakline-backend/pkg/enums"
)

// CreateItemInput is one requested order line. CartItemID, when present,
// names the cart line consumed by this purchase.
type CreateItemInput struct {
	ProductID  uuid.UUID
	Quantity   int
	CartItemID *uuid.UUID
}

// CreateInput is the order creation payload.
type CreateInput struct {
	AddressID     uuid.UUID
	Total         float64
	PaymentMethod string
	Items         []CreateItemInput
}

// ItemResultDTO reports the outcome for one requested line.
type ItemResultDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Accepted  bool      `json:"accepted"`
	Reason    string    `json:"reason,omitempty"`
}

// CreateResultDTO wraps the stored order with its per-item outcomes.
type CreateResultDTO struct {
	Order OrderDTO        `json:"order"`
	Items []ItemResultDTO `json:"items"`
}

// AddressSummaryDTO is the flattened shipping destination.
type AddressSummaryDTO struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
}

// ItemDTO is one frozen order line.
type ItemDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

// OrderDTO is the order transport shape.
type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	Status        string            `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	IsPaid        bool              `json:"is_paid"`
	Total         float64           `json:"total"`
	Address       AddressSummaryDTO `json:"address"`
	Items         []ItemDTO         `json:"items"`
	CreatedAt     time.Time         `json:"created_at"`
}

func orderToDTO(order *models.Order, address *models.Address) OrderDTO {
	items := make([]ItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	dto := OrderDTO{
		ID:            order.ID,
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		IsPaid:        order.IsPaid,
		Total:         order.Total,
		Items:         items,
		CreatedAt:     order.CreatedAt,
	}
	if address != nil {
		dto.Address = AddressSummaryDTO{
			City:    address.City,
			State:   address.State,
			Zipcode: address.Zipcode,
		}
	}
	return dto
}

func defaultPaymentMethod(raw string) (enums.PaymentMethod, error) {
	if raw == "" {
		return enums.PaymentMethodCOD, nil
	}
	return enums.ParsePaymentMethod(raw)
}
