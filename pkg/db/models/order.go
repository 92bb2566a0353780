package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakline/oakline-backend/pkg/enums"
)

// Order is a placed order with its frozen item lines.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	AddressID     uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null;default:'cod'"`
	IsPaid        bool                `gorm:"column:is_paid;not null;default:false"`
	Total         float64             `gorm:"column:total;not null"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
