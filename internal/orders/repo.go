package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oakline/oakline-backend/pkg/db/models"
)

// Repository encapsulates order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx runs fn in a transaction on the underlying connection.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// FindOwnedAddress loads the address only when it belongs to the user.
func (r *Repository) FindOwnedAddress(ctx context.Context, tx *gorm.DB, userID, addressID uuid.UUID) (*models.Address, error) {
	conn := r.conn(tx)
	var address models.Address
	err := conn.WithContext(ctx).
		First(&address, "id = ? AND user_id = ?", addressID, userID).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// FindProductForUpdate loads the product row, locking it on dialects with row locks.
func (r *Repository) FindProductForUpdate(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	query := tx.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ConsumeStock moves quantity from stock to sold for the product.
func (r *Repository) ConsumeStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) error {
	return tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock": gorm.Expr("stock - ?", quantity),
			"sold":  gorm.Expr("sold + ?", quantity),
		}).Error
}

// InsertOrder persists the order and its line items.
func (r *Repository) InsertOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

// DeleteCartLines removes the consumed cart lines belonging to the user's cart.
func (r *Repository) DeleteCartLines(ctx context.Context, tx *gorm.DB, userID uuid.UUID, lineIDs []uuid.UUID) error {
	if len(lineIDs) == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Where("id IN ? AND cart_id IN (SELECT id FROM carts WHERE user_id = ?)", lineIDs, userID).
		Delete(&models.CartItem{}).Error
}

// FindOwned loads an order with items when it belongs to the user.
func (r *Repository) FindOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ? AND user_id = ?", orderID, userID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders newest first, items preloaded.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindAddress loads an address row regardless of owner; used to flatten
// destinations on reads after the ownership check already passed at creation.
func (r *Repository) FindAddress(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", addressID).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
