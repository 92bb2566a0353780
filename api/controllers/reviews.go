package controllers

import (
	"net/http"
	"strings"

	"github.com/oakline/oakline-backend/api/responses"
	"github.com/oakline/oakline-backend/api/validators"
	"github.com/oakline/oakline-backend/internal/reviews"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
	"github.com/oakline/oakline-backend/pkg/logger"
	"github.com/oakline/oakline-backend/pkg/pagination"
)

type createReviewPayload struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Rating    float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Body      string  `json:"body" validate:"required"`
}

// ReviewList serves one page of reviews for the product named in the query.
func ReviewList(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("product_id"))
		if raw == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required"))
			return
		}
		productID, err := parseUUIDString(raw, "product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := pagination.Params{}
		if params.Page, err = validators.ParseQueryInt(r, "page", 0, 1, 1<<30); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if params.Limit, err = validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxPageSize); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListByProduct(ctx, productID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReviewCreate stores the caller's review of a product.
func ReviewCreate(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reviews service unavailable"))
			return
		}

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createReviewPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := parseUUIDString(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		review, err := svc.Create(ctx, userID, reviews.CreateInput{
			ProductID: productID,
			Rating:    payload.Rating,
			Body:      payload.Body,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}
