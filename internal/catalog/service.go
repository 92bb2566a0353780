package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/db/models"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
	"github.com/oakline/oakline-backend/pkg/pagination"
)

const (
	autocompleteLimit = 10
	// searchScanLimit over-fetches so title de-duplication can still fill a page.
	searchScanLimit = 50
)

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes catalog reads plus administrative ingestion.
type Service interface {
	ListProducts(ctx context.Context, filter ListFilter) (pagination.Result[ProductDTO], error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Autocomplete(ctx context.Context, query string) ([]string, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	AddImage(ctx context.Context, input AddImageInput) (*ImageDTO, error)
}

type service struct {
	repo *Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// ListProducts returns one filtered, ordered, paginated catalog page.
func (s *service) ListProducts(ctx context.Context, filter ListFilter) (pagination.Result[ProductDTO], error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return pagination.Result[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price exceeds max_price")
	}

	page := pagination.Normalize(pagination.Params{Page: filter.Page, Limit: filter.Limit})
	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return pagination.Result[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, productToDTO(&rows[i]))
	}
	return pagination.NewResult(dtos, total, page), nil
}

// GetProduct loads one product. A missing id yields (nil, nil); the HTTP
// layer keeps the empty-object 200 contract for unknown products.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := productToDTO(product)
	return &dto, nil
}

// Autocomplete returns up to ten unique titles ranked by match position.
func (s *service) Autocomplete(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return []string{}, nil
	}

	rows, err := s.repo.SearchTitles(ctx, query, searchScanLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search titles")
	}

	seen := make(map[string]struct{}, len(rows))
	titles := make([]string, 0, autocompleteLimit)
	for _, row := range rows {
		if _, dup := seen[row.Title]; dup {
			continue
		}
		seen[row.Title] = struct{}{}
		titles = append(titles, row.Title)
		if len(titles) == autocompleteLimit {
			break
		}
	}
	return titles, nil
}

// ListCategories returns the flat category arena.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	dtos := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, categoryToDTO(&rows[i]))
	}
	return dtos, nil
}

// CreateProduct persists an administrative listing.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	product := &models.Product{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		SKU:         input.SKU,
		Price:       input.Price,
		Discount:    input.Discount,
		Stock:       input.Stock,
		Weight:      input.Weight,
		CategoryID:  input.CategoryID,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := productToDTO(product)
	return &dto, nil
}

// AddImage attaches an external image URL to an existing product.
func (s *service) AddImage(ctx context.Context, input AddImageInput) (*ImageDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(input.URL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
	}
	if _, err := s.repo.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	image := &models.ProductImage{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		URL:       strings.TrimSpace(input.URL),
		AltText:   input.AltText,
	}
	if err := s.repo.AddImage(ctx, image); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add image")
	}
	return &ImageDTO{ID: image.ID, URL: image.URL, AltText: image.AltText}, nil
}
