package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakline/oakline-backend/pkg/db/models"
)

// ProductDTO is the catalog transport shape.
type ProductDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	SKU         *string    `json:"sku,omitempty"`
	Price       float64    `json:"price"`
	Discount    float64    `json:"discount"`
	Rating      float64    `json:"rating"`
	ReviewCount int        `json:"review_count"`
	Stock       int        `json:"stock"`
	Sold        int        `json:"sold"`
	Weight      *float64   `json:"weight,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Images      []ImageDTO `json:"images"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ImageDTO is a stored image URL reference.
type ImageDTO struct {
	ID      uuid.UUID `json:"id"`
	URL     string    `json:"url"`
	AltText *string   `json:"alt_text,omitempty"`
}

// CategoryDTO is one node of the flat category arena.
type CategoryDTO struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// ListFilter carries the catalog query parameters.
type ListFilter struct {
	Title      string
	Categories []string
	MinPrice   *float64
	MaxPrice   *float64
	OrderBy    string
	Descending bool
	Page       int
	Limit      int
}

// CreateProductInput is the administrative ingestion payload.
type CreateProductInput struct {
	Title       string
	Description string
	SKU         *string
	Price       float64
	Discount    float64
	Stock       int
	Weight      *float64
	CategoryID  *uuid.UUID
}

// AddImageInput attaches an external image URL to a product.
type AddImageInput struct {
	ProductID uuid.UUID
	URL       string
	AltText   *string
}

func productToDTO(p *models.Product) ProductDTO {
	images := make([]ImageDTO, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageDTO{ID: img.ID, URL: img.URL, AltText: img.AltText})
	}
	return ProductDTO{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		SKU:         p.SKU,
		Price:       p.Price,
		Discount:    p.Discount,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Stock:       p.Stock,
		Sold:        p.Sold,
		Weight:      p.Weight,
		CategoryID:  p.CategoryID,
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func categoryToDTO(c *models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, ParentID: c.ParentID}
}
