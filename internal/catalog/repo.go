package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/db/models"
	"github.com/oakline/oakline-backend/pkg/pagination"
)

// orderColumns whitelists the sortable catalog columns.
var orderColumns = map[string]string{
	"price":      "price",
	"created_at": "created_at",
	"title":      "title",
	"rating":     "rating",
	"sold":       "sold",
}

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns one page of products matching the filter plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Page) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if title := strings.TrimSpace(filter.Title); title != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+strings.ToLower(escapeLike(title))+"%")
	}
	if names := normalizeNames(filter.Categories); len(names) > 0 {
		query = query.Where(
			"category_id IN (SELECT id FROM categories WHERE LOWER(name) IN ?)",
			names,
		)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := orderColumns[filter.OrderBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	var rows []models.Product
	err := query.
		Preload("Images").
		Order(column + " " + direction).
		Order("id ASC").
		Offset(page.Offset).
		Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindByID loads one product with its images.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// autocompleteRow carries a ranked title match.
type autocompleteRow struct {
	Title    string
	Priority int
}

// SearchTitles ranks product titles for autocomplete. Rank 0 is an exact
// prefix, rank 1 the query starting a later word, rank 2 any substring.
func (r *Repository) SearchTitles(ctx context.Context, query string, limit int) ([]autocompleteRow, error) {
	q := strings.ToLower(escapeLike(strings.TrimSpace(query)))
	if q == "" {
		return nil, nil
	}

	var rows []autocompleteRow
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select(`title, CASE
  WHEN LOWER(title) LIKE ? ESCAPE '\' THEN 0
  WHEN LOWER(title) LIKE ? ESCAPE '\' THEN 1
  WHEN LOWER(title) LIKE ? ESCAPE '\' THEN 2
  ELSE 3
END AS priority`, q+"%", "% "+q+"%", "%"+q+"%").
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+q+"%").
		Order("priority ASC").
		Order("title ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCategories returns the whole flat arena.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateProduct inserts a catalog listing.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// AddImage attaches an image URL reference to a product.
func (r *Repository) AddImage(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	return strings.ReplaceAll(value, "_", `\_`)
}
