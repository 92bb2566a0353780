package controllers

import (
	"net/http"
	"strings"

	"github.com/oakline/oakline-backend/api/responses"
	"github.com/oakline/oakline-backend/api/validators"
	"github.com/oakline/oakline-backend/internal/orders"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
	"github.com/oakline/oakline-backend/pkg/logger"
)

// Item quantities are not bounds-checked here; the service skips and
// reports out-of-range lines instead of failing the whole order.
type orderItemPayload struct {
	ProductID  string  `json:"product_id" validate:"required,uuid"`
	Quantity   int     `json:"quantity"`
	CartItemID *string `json:"cart_item_id"`
}

type createOrderPayload struct {
	AddressID     string             `json:"address_id" validate:"required,uuid"`
	Total         float64            `json:"total" validate:"gte=0"`
	PaymentMethod string             `json:"payment_method"`
	Items         []orderItemPayload `json:"items" validate:"required,min=1,dive"`
}

// OrderCreate places an order from the submitted items. Invalid lines are
// skipped and reported, valid ones go through.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		addressID, err := parseUUIDString(payload.AddressID, "address_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := orders.CreateInput{
			AddressID:     addressID,
			Total:         payload.Total,
			PaymentMethod: payload.PaymentMethod,
			Items:         make([]orders.CreateItemInput, 0, len(payload.Items)),
		}
		for _, item := range payload.Items {
			productID, err := parseUUIDString(item.ProductID, "product_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			entry := orders.CreateItemInput{ProductID: productID, Quantity: item.Quantity}
			if item.CartItemID != nil && strings.TrimSpace(*item.CartItemID) != "" {
				cartItemID, err := parseUUIDString(*item.CartItemID, "cart_item_id")
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				entry.CartItemID = &cartItemID
			}
			input.Items = append(input.Items, entry)
		}

		result, err := svc.Create(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrderList serves the caller's orders, newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.List(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderDetail serves one owned order.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Get(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderItems serves the line items of one owned order.
func OrderItems(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseURLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, err := svc.ListItems(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
