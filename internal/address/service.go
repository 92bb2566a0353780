package address

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/db/models"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
)

// ServiceParams groups dependencies for the address book service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes address book reads and mutations. Every mutation
// preserves the at-most-one-default invariant per user.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, addressID uuid.UUID) (AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (AddressDTO, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input UpdateInput) (AddressDTO, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService builds an address service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// List returns the user's address book, default entry first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	dtos := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDTO(&rows[i]))
	}
	return dtos, nil
}

// Get loads one owned address.
func (s *service) Get(ctx context.Context, userID, addressID uuid.UUID) (AddressDTO, error) {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return AddressDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user and address ids are required")
	}
	row, err := s.repo.FindOwned(ctx, nil, userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AddressDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
		}
		return AddressDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return toDTO(row), nil
}

// Create adds a new address. The first address of a user always becomes
// the default; an explicit default demotes the previous one.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (AddressDTO, error) {
	if userID == uuid.Nil {
		return AddressDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateCreate(input); err != nil {
		return AddressDTO{}, err
	}

	row := &models.Address{
		ID:       uuid.New(),
		UserID:   userID,
		FullName: strings.TrimSpace(input.FullName),
		Line:     strings.TrimSpace(input.Line),
		City:     strings.TrimSpace(input.City),
		State:    strings.TrimSpace(input.State),
		Zipcode:  strings.TrimSpace(input.Zipcode),
		Phone:    strings.TrimSpace(input.Phone),
	}

	err := s.repo.WithTx(ctx, func(tx *gorm.DB) error {
		count, err := s.repo.CountByUser(ctx, tx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
		}
		row.DefaultAddress = count == 0 || input.DefaultAddress
		if row.DefaultAddress {
			if err := s.repo.ClearDefault(ctx, tx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		if err := s.repo.Insert(ctx, tx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
		}
		return nil
	})
	if err != nil {
		return AddressDTO{}, err
	}
	return toDTO(row), nil
}

// Update edits an owned address. Promoting an entry to default demotes
// the rest; demoting the current default leaves the book with none.
func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input UpdateInput) (AddressDTO, error) {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return AddressDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user and address ids are required")
	}

	updates := buildUpdates(input)
	var updated *models.Address
	err := s.repo.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.FindOwned(ctx, tx, userID, addressID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		if input.DefaultAddress != nil && *input.DefaultAddress {
			if err := s.repo.ClearDefault(ctx, tx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		if len(updates) > 0 {
			if err := s.repo.Update(ctx, tx, addressID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
			}
		}
		row, err := s.repo.FindOwned(ctx, tx, userID, addressID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload address")
		}
		updated = row
		return nil
	})
	if err != nil {
		return AddressDTO{}, err
	}
	return toDTO(updated), nil
}

// Delete removes an owned address. When the default entry is removed the
// newest remaining address inherits the flag.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user and address ids are required")
	}

	return s.repo.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.FindOwned(ctx, tx, userID, addressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		wasDefault := row.DefaultAddress

		removed, err := s.repo.Delete(ctx, tx, userID, addressID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
		}
		if !removed {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}

		if wasDefault {
			newest, err := s.repo.NewestByUser(ctx, tx, userID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load remaining addresses")
			}
			if newest != nil {
				updates := map[string]any{"default_address": true}
				if err := s.repo.Update(ctx, tx, newest.ID, updates); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote default address")
				}
			}
		}
		return nil
	})
}

func validateCreate(input CreateInput) error {
	required := map[string]string{
		"full_name": input.FullName,
		"line":      input.Line,
		"city":      input.City,
		"state":     input.State,
		"zipcode":   input.Zipcode,
		"phone":     input.Phone,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
	}
	return nil
}

func buildUpdates(input UpdateInput) map[string]any {
	updates := map[string]any{}
	if input.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*input.FullName)
	}
	if input.Line != nil {
		updates["line"] = strings.TrimSpace(*input.Line)
	}
	if input.City != nil {
		updates["city"] = strings.TrimSpace(*input.City)
	}
	if input.State != nil {
		updates["state"] = strings.TrimSpace(*input.State)
	}
	if input.Zipcode != nil {
		updates["zipcode"] = strings.TrimSpace(*input.Zipcode)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.DefaultAddress != nil {
		updates["default_address"] = *input.DefaultAddress
	}
	return updates
}
