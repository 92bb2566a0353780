package reviews

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/internal/catalog"
	"github.com/oakline/oakline-backend/pkg/db/models"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
	"github.com/oakline/oakline-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the reviews service.
type ServiceParams struct {
	Repo        *Repository
	CatalogRepo *catalog.Repository
}

// Service exposes review reads and creation.
type Service interface {
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Result[ReviewDTO], error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (ReviewDTO, error)
}

type service struct {
	repo    *Repository
	catalog *catalog.Repository
}

// NewService builds a reviews service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviews repo is required")
	}
	if params.CatalogRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{repo: params.Repo, catalog: params.CatalogRepo}, nil
}

// ListByProduct returns one page of reviews, newest first.
func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Result[ReviewDTO], error) {
	if productID == uuid.Nil {
		return pagination.Result[ReviewDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	page := pagination.Normalize(params)
	rows, total, err := s.repo.ListByProduct(ctx, productID, page)
	if err != nil {
		return pagination.Result[ReviewDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}

	dtos := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ReviewDTO{
			ID:        row.ID,
			ProductID: row.ProductID,
			UserID:    row.UserID,
			Reviewer:  strings.TrimSpace(row.FirstName + " " + row.LastName),
			Rating:    row.Rating,
			Body:      row.Body,
			CreatedAt: row.CreatedAt,
		})
	}
	return pagination.NewResult(dtos, total, page), nil
}

// Create stores a review. A second review of the same product by the same
// user is reported, never stored twice.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (ReviewDTO, error) {
	if userID == uuid.Nil {
		return ReviewDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ProductID == uuid.Nil {
		return ReviewDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return ReviewDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return ReviewDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "review body is required")
	}

	if _, err := s.catalog.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ReviewDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ReviewDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	exists, err := s.repo.Exists(ctx, userID, input.ProductID)
	if err != nil {
		return ReviewDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
	}
	if exists {
		return ReviewDTO{}, pkgerrors.New(pkgerrors.CodeAlreadyReported, "you have already reviewed this product")
	}

	row := &models.Review{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: input.ProductID,
		Rating:    input.Rating,
		Body:      body,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return ReviewDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}

	return ReviewDTO{
		ID:        row.ID,
		ProductID: row.ProductID,
		UserID:    row.UserID,
		Rating:    row.Rating,
		Body:      row.Body,
		CreatedAt: row.CreatedAt,
	}, nil
}
