package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oakline/oakline-backend/pkg/db/models"
)

// Repository encapsulates cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx runs fn in a transaction on the underlying connection.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// FindCartByUser loads the user's cart container.
func (r *Repository) FindCartByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	conn := r.conn(tx)
	var cart models.Cart
	if err := conn.WithContext(ctx).First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateCartTx inserts the per-user cart container inside the caller's transaction.
func (r *Repository) CreateCartTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{ID: uuid.New(), UserID: userID}
	if err := tx.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// FindLineForUpdate loads the cart line for a product, locking it on dialects
// that support row locks.
func (r *Repository) FindLineForUpdate(ctx context.Context, tx *gorm.DB, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	query := lockRows(tx.WithContext(ctx))
	if err := query.First(&line, "cart_id = ? AND product_id = ?", cartID, productID).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// FindProductForUpdate loads the product row, locking it on dialects that
// support row locks.
func (r *Repository) FindProductForUpdate(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	query := lockRows(tx.WithContext(ctx))
	if err := query.First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// InsertLine creates a new cart line.
func (r *Repository) InsertLine(ctx context.Context, tx *gorm.DB, line *models.CartItem) error {
	return tx.WithContext(ctx).Create(line).Error
}

// UpdateLineQuantity overwrites a line's quantity.
func (r *Repository) UpdateLineQuantity(ctx context.Context, tx *gorm.DB, lineID uuid.UUID, quantity int) error {
	return tx.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", lineID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now()}).Error
}

// DeleteLineByID removes a line scoped to the cart, reporting whether a row matched.
func (r *Repository) DeleteLineByID(ctx context.Context, cartID, lineID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", lineID, cartID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// lineRecord joins a cart line to its live product fields.
type lineRecord struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Title     string
	Price     float64
	Quantity  int
	Stock     int
	CreatedAt time.Time
}

// ListLines returns the cart lines joined with live product data.
func (r *Repository) ListLines(ctx context.Context, cartID uuid.UUID) ([]lineRecord, error) {
	var rows []lineRecord
	err := r.db.WithContext(ctx).
		Table("cart_items ci").
		Select("ci.id, ci.product_id, p.title, p.price, ci.quantity, p.stock, ci.created_at").
		Joins("JOIN products p ON p.id = ci.product_id").
		Where("ci.cart_id = ?", cartID).
		Order("ci.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountLines returns the distinct line count for the cart.
func (r *Repository) CountLines(ctx context.Context, cartID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error
	return count, err
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// lockRows adds FOR UPDATE on engines with row locks; sqlite runs the bare query.
func lockRows(query *gorm.DB) *gorm.DB {
	if query.Dialector.Name() == "postgres" {
		return query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}
