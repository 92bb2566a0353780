package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/db/models"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
)

// MaxLineQuantity caps any cart line regardless of stock.
const MaxLineQuantity = 10

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes cart mutations with the stock and quantity-cap invariants.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, delta int) (*ItemDTO, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*ItemDTO, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	TotalQuantity(ctx context.Context, userID uuid.UUID) (int, error)
}

type service struct {
	repo *Repository
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// Add applies a quantity delta, creating the line when absent. Negative
// deltas decrement an existing line; the summed quantity is what gets
// validated. The whole read-validate-write runs in one transaction so
// concurrent requests cannot push a line past stock or the cap.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, delta int) (*ItemDTO, error) {
	return s.mutateLine(ctx, userID, productID, func(current int) int {
		return current + delta
	}, true)
}

// SetQuantity overwrites the line's quantity; the line must already exist.
func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*ItemDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return s.mutateLine(ctx, userID, productID, func(int) int {
		return quantity
	}, false)
}

func (s *service) mutateLine(ctx context.Context, userID, productID uuid.UUID, next func(current int) int, createMissing bool) (*ItemDTO, error) {
	if userID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and product ids are required")
	}

	var result *ItemDTO
	err := s.repo.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.repo.FindCartByUser(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		product, err := s.repo.FindProductForUpdate(ctx, tx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		line, err := s.repo.FindLineForUpdate(ctx, tx, cart.ID, productID)
		missing := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !missing {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}
		if missing && !createMissing {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}

		current := 0
		if !missing {
			current = line.Quantity
		}
		quantity := next(current)

		if err := validateQuantity(quantity, product.Stock); err != nil {
			return err
		}

		if missing {
			line = &models.CartItem{
				ID:        uuid.New(),
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
			}
			if err := s.repo.InsertLine(ctx, tx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart line")
			}
		} else {
			if err := s.repo.UpdateLineQuantity(ctx, tx, line.ID, quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
			}
			line.Quantity = quantity
		}

		result = &ItemDTO{
			ID:        line.ID,
			ProductID: productID,
			Title:     product.Title,
			UnitPrice: product.Price,
			Quantity:  quantity,
			LineTotal: lineTotal(product.Price, quantity),
			Stock:     product.Stock,
			CreatedAt: line.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Remove deletes an owned cart line by its ID.
func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user and item ids are required")
	}
	cart, err := s.repo.FindCartByUser(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	removed, err := s.repo.DeleteLineByID(ctx, cart.ID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return nil
}

// List assembles the cart view with live prices.
func (s *service) List(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindCartByUser(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart not found")
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	rows, err := s.repo.ListLines(ctx, cart.ID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}

	items := make([]ItemDTO, 0, len(rows))
	subtotal := 0.0
	for _, row := range rows {
		total := lineTotal(row.Price, row.Quantity)
		subtotal += total
		items = append(items, ItemDTO{
			ID:        row.ID,
			ProductID: row.ProductID,
			Title:     row.Title,
			UnitPrice: row.Price,
			Quantity:  row.Quantity,
			LineTotal: total,
			Stock:     row.Stock,
			CreatedAt: row.CreatedAt,
		})
	}
	return CartDTO{
		Items:         items,
		TotalQuantity: len(items),
		Subtotal:      subtotal,
	}, nil
}

// TotalQuantity reports the distinct line count, not the summed quantities.
func (s *service) TotalQuantity(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindCartByUser(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	count, err := s.repo.CountLines(ctx, cart.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart lines")
	}
	return int(count), nil
}

func validateQuantity(quantity, stock int) error {
	if quantity > stock {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{"stock": stock})
	}
	if quantity < 1 || quantity > MaxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeConflict, "quantity cap exceeded").
			WithDetails(map[string]any{"min": 1, "max": MaxLineQuantity})
	}
	return nil
}
