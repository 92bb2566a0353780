package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakline/oakline-backend/pkg/db/models"
)

// AddressDTO is the API shape of one address book entry.
type AddressDTO struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Line           string    `json:"line"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Zipcode        string    `json:"zipcode"`
	Phone          string    `json:"phone"`
	DefaultAddress bool      `json:"default_address"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateInput carries the fields of a new address.
type CreateInput struct {
	FullName       string `json:"full_name" validate:"required"`
	Line           string `json:"line" validate:"required"`
	City           string `json:"city" validate:"required"`
	State          string `json:"state" validate:"required"`
	Zipcode        string `json:"zipcode" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	DefaultAddress bool   `json:"default_address"`
}

// UpdateInput carries partial address edits. Nil fields are unchanged.
type UpdateInput struct {
	FullName       *string `json:"full_name"`
	Line           *string `json:"line"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	Zipcode        *string `json:"zipcode"`
	Phone          *string `json:"phone"`
	DefaultAddress *bool   `json:"default_address"`
}

func toDTO(row *models.Address) AddressDTO {
	return AddressDTO{
		ID:             row.ID,
		FullName:       row.FullName,
		Line:           row.Line,
		City:           row.City,
		State:          row.State,
		Zipcode:        row.Zipcode,
		Phone:          row.Phone,
		DefaultAddress: row.DefaultAddress,
		CreatedAt:      row.CreatedAt,
	}
}
