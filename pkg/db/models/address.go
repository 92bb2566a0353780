package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is one entry in a user's address book. At most one row per user
// carries DefaultAddress=true; the service layer enforces the invariant.
type Address struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:addresses_user_id_idx"`
	FullName       string    `gorm:"column:full_name;not null"`
	Line           string    `gorm:"column:line;not null"`
	City           string    `gorm:"column:city;not null"`
	State          string    `gorm:"column:state;not null"`
	Zipcode        string    `gorm:"column:zipcode;not null"`
	Phone          string    `gorm:"column:phone;not null"`
	DefaultAddress bool      `gorm:"column:default_address;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
