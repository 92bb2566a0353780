package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/oakline/oakline-backend/api/responses"
	"github.com/oakline/oakline-backend/api/validators"
	"github.com/oakline/oakline-backend/internal/catalog"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
	"github.com/oakline/oakline-backend/pkg/logger"
	"github.com/oakline/oakline-backend/pkg/pagination"
)

// ProductList serves the filtered, sorted, paginated catalog.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filter := catalog.ListFilter{
			Title: strings.TrimSpace(r.URL.Query().Get("title")),
		}

		// The category param repeats: ?category=a&category=b.
		for _, name := range r.URL.Query()["category"] {
			if name = strings.TrimSpace(name); name != "" {
				filter.Categories = append(filter.Categories, name)
			}
		}

		var err error
		if filter.MinPrice, err = parsePriceParam(r, "min_price"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if filter.MaxPrice, err = parsePriceParam(r, "max_price"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if ordering := strings.TrimSpace(r.URL.Query().Get("ordering")); ordering != "" {
			if strings.HasPrefix(ordering, "-") {
				filter.Descending = true
				ordering = ordering[1:]
			}
			filter.OrderBy = ordering
		}

		if filter.Page, err = validators.ParseQueryInt(r, "page", 0, 1, 1<<30); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if filter.Limit, err = validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxPageSize); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListProducts(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductDetail serves one product. Unknown ids answer with an empty object
// so storefront detail pages render a blank state instead of an error.
func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.GetProduct(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if product == nil {
			responses.WriteSuccess(w, map[string]any{})
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductAutocomplete serves ranked title suggestions.
func ProductAutocomplete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		titles, err := svc.Autocomplete(ctx, r.URL.Query().Get("query"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, titles)
	}
}

// CategoryList serves the flat category arena.
func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

type createProductPayload struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	SKU         *string  `json:"sku"`
	Price       float64  `json:"price" validate:"gte=0"`
	Discount    float64  `json:"discount" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Weight      *float64 `json:"weight"`
	CategoryID  *string  `json:"category_id"`
}

// ProductCreate ingests a new listing. Staff only.
func ProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := catalog.CreateProductInput{
			Title:       payload.Title,
			Description: payload.Description,
			SKU:         payload.SKU,
			Price:       payload.Price,
			Discount:    payload.Discount,
			Stock:       payload.Stock,
			Weight:      payload.Weight,
		}
		if payload.CategoryID != nil && strings.TrimSpace(*payload.CategoryID) != "" {
			id, err := parseUUIDString(*payload.CategoryID, "category_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.CategoryID = &id
		}

		product, err := svc.CreateProduct(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type addImagePayload struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	URL       string  `json:"url" validate:"required,url"`
	AltText   *string `json:"alt_text"`
}

// ProductAddImage attaches an image URL to a listing. Staff only.
func ProductAddImage(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload addImagePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := parseUUIDString(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		image, err := svc.AddImage(ctx, catalog.AddImageInput{
			ProductID: productID,
			URL:       payload.URL,
			AltText:   payload.AltText,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, image)
	}
}

func parsePriceParam(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a non-negative number")
	}
	return &value, nil
}
