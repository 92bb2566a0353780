package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/internal/catalog"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo        *Repository
	CatalogRepo *catalog.Repository
}

// Service exposes wishlist reads and mutations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (AddResultDTO, error)
	Remove(ctx context.Context, userID, entryID uuid.UUID) error
}

type service struct {
	repo    *Repository
	catalog *catalog.Repository
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.CatalogRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{repo: params.Repo, catalog: params.CatalogRepo}, nil
}

// List returns the user's wishlist entries.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, ItemDTO{
			ID:        row.ID,
			ProductID: row.ProductID,
			Title:     row.Title,
			Price:     row.Price,
			Stock:     row.Stock,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

// Add likes a product. A repeat add is reported, never duplicated.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) (AddResultDTO, error) {
	if userID == uuid.Nil || productID == uuid.Nil {
		return AddResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user and product ids are required")
	}
	if _, err := s.catalog.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AddResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return AddResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	exists, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return AddResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist")
	}
	if exists {
		return AddResultDTO{Added: false, Message: "item already in wishlist"}, nil
	}
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return AddResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return AddResultDTO{Added: true, Message: "item added to wishlist"}, nil
}

// Remove deletes an owned entry.
func (s *service) Remove(ctx context.Context, userID, entryID uuid.UUID) error {
	if userID == uuid.Nil || entryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user and entry ids are required")
	}
	removed, err := s.repo.Remove(ctx, userID, entryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist entry not found")
	}
	return nil
}
