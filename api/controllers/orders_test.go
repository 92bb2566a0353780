package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/oakline-backend/api/middleware"
	"github.com/oakline/oakline-backend/internal/orders"
)

type stubOrdersService struct {
	input orders.CreateInput
}

func (s *stubOrdersService) Create(_ context.Context, _ uuid.UUID, input orders.CreateInput) (*orders.CreateResultDTO, error) {
	s.input = input
	items := make([]orders.ItemResultDTO, 0, len(input.Items))
	for _, item := range input.Items {
		outcome := orders.ItemResultDTO{ProductID: item.ProductID, Accepted: true}
		if item.Quantity < 1 || item.Quantity > 10 {
			outcome.Accepted = false
			outcome.Reason = "quantity cap exceeded"
		}
		items = append(items, outcome)
	}
	return &orders.CreateResultDTO{Items: items}, nil
}

func (s *stubOrdersService) Get(context.Context, uuid.UUID, uuid.UUID) (*orders.OrderDTO, error) {
	return nil, nil
}

func (s *stubOrdersService) List(context.Context, uuid.UUID) ([]orders.OrderDTO, error) {
	return nil, nil
}

func (s *stubOrdersService) ListItems(context.Context, uuid.UUID, uuid.UUID) ([]orders.ItemDTO, error) {
	return nil, nil
}

func TestOrderCreatePassesOutOfRangeQuantities(t *testing.T) {
	svc := &stubOrdersService{}
	handler := OrderCreate(svc, nil)

	body := `{
		"address_id": "` + uuid.NewString() + `",
		"total": 49.99,
		"items": [
			{"product_id": "` + uuid.NewString() + `", "quantity": 2},
			{"product_id": "` + uuid.NewString() + `", "quantity": 11}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	// The cap violation is the service's call to classify, not a request error.
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Len(t, svc.input.Items, 2)
	assert.Equal(t, 11, svc.input.Items[1].Quantity)
}
