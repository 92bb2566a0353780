package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/config"
	"github.com/oakline/oakline-backend/pkg/db/models"
	"github.com/oakline/oakline-backend/pkg/enums"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
	"github.com/oakline/oakline-backend/pkg/logger"
)

// maxLineQuantity mirrors the cart engine's per-line cap.
const maxLineQuantity = 10

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repo   *Repository
	Config config.OrdersConfig
	Logger *logger.Logger
}

// Service exposes order creation and owned reads.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*CreateResultDTO, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	ListItems(ctx context.Context, userID, orderID uuid.UUID) ([]ItemDTO, error)
}

type service struct {
	repo *Repository
	cfg  config.OrdersConfig
	logg *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	}
	return &service{repo: params.Repo, cfg: params.Config, logg: params.Logger}, nil
}

// Create places an order. Invalid lines are skipped and reported, never
// fatal; the order persists as long as the address belongs to the caller and
// at least one line survives validation.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*CreateResultDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	payment, err := defaultPaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method")
	}

	var result *CreateResultDTO
	txErr := s.repo.WithTx(ctx, func(tx *gorm.DB) error {
		address, err := s.repo.FindOwnedAddress(ctx, tx, userID, input.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}

		order := &models.Order{
			ID:            uuid.New(),
			UserID:        userID,
			AddressID:     address.ID,
			Status:        enums.OrderStatusPending,
			PaymentMethod: payment,
			Total:         input.Total,
		}

		outcomes := make([]ItemResultDTO, 0, len(input.Items))
		consumedLines := make([]uuid.UUID, 0, len(input.Items))
		serverTotal := decimal.Zero
		var skipped error

		for _, item := range input.Items {
			reason, product := s.validateItem(ctx, tx, item)
			if reason != "" {
				outcomes = append(outcomes, ItemResultDTO{ProductID: item.ProductID, Reason: reason})
				skipped = multierr.Append(skipped, fmt.Errorf("item %s: %s", item.ProductID, reason))
				continue
			}

			order.Items = append(order.Items, models.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			})
			outcomes = append(outcomes, ItemResultDTO{ProductID: item.ProductID, Accepted: true})
			serverTotal = serverTotal.Add(
				decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))

			if item.CartItemID != nil {
				consumedLines = append(consumedLines, *item.CartItemID)
			}

			if s.cfg.DecrementStock {
				if err := s.repo.ConsumeStock(ctx, tx, product.ID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume stock")
				}
			}
		}

		if skipped != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "order_id", order.ID.String()),
				"order items skipped: "+skipped.Error())
		}

		if len(order.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no valid items in order")
		}

		if s.cfg.ServerTotals {
			order.Total, _ = serverTotal.Float64()
		}

		if err := s.repo.InsertOrder(ctx, tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		if err := s.repo.DeleteCartLines(ctx, tx, userID, consumedLines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart lines")
		}

		result = &CreateResultDTO{
			Order: orderToDTO(order, address),
			Items: outcomes,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return result, nil
}

func (s *service) validateItem(ctx context.Context, tx *gorm.DB, item CreateItemInput) (string, *models.Product) {
	if item.ProductID == uuid.Nil {
		return "product id missing", nil
	}
	if item.Quantity < 1 {
		return "quantity below minimum", nil
	}
	if item.Quantity > maxLineQuantity {
		return "quantity cap exceeded", nil
	}
	product, err := s.repo.FindProductForUpdate(ctx, tx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "product not found", nil
		}
		return "product lookup failed", nil
	}
	if item.Quantity > product.Stock {
		return "insufficient stock", nil
	}
	return "", product
}

// Get returns one owned order with its flattened destination.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and order ids are required")
	}
	order, err := s.repo.FindOwned(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := s.withAddress(ctx, order)
	return &dto, nil
}

// List returns the user's orders newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, s.withAddress(ctx, &rows[i]))
	}
	return dtos, nil
}

// ListItems returns the line items of an owned order.
func (s *service) ListItems(ctx context.Context, userID, orderID uuid.UUID) ([]ItemDTO, error) {
	order, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return order.Items, nil
}

func (s *service) withAddress(ctx context.Context, order *models.Order) OrderDTO {
	address, err := s.repo.FindAddress(ctx, order.AddressID)
	if err != nil {
		// Destination rows can be deleted after the fact; the order still reads.
		address = nil
	}
	return orderToDTO(order, address)
}
