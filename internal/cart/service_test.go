package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/db/models"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  sku TEXT,
  price REAL NOT NULL,
  discount REAL NOT NULL DEFAULT 0,
  rating REAL NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  sold INTEGER NOT NULL DEFAULT 0,
  weight REAL,
  category_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`
	for _, schema := range []string{products, carts, cartItems} {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	require.NoError(t, err)
	return svc
}

func seedCart(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, db.Create(&models.Cart{ID: uuid.New(), UserID: userID}).Error)
	return userID
}

func seedStockedProduct(t *testing.T, db *gorm.DB, title string, price float64, stock int) uuid.UUID {
	t.Helper()
	product := &models.Product{ID: uuid.New(), Title: title, Price: price, Stock: stock}
	require.NoError(t, db.Create(product).Error)
	return product.ID
}

func requireConflict(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestAddCreatesAndAccumulates(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := seedCart(t, db)
	productID := seedStockedProduct(t, db, "Kettle", 40, 8)

	item, err := svc.Add(ctx, userID, productID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.InDelta(t, 80, item.LineTotal, 0.001)

	item, err = svc.Add(ctx, userID, productID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	total, err := svc.TotalQuantity(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "total counts distinct lines")
}

func TestAddRejectsBeyondStock(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := seedCart(t, db)
	productID := seedStockedProduct(t, db, "Kettle", 40, 3)

	_, err := svc.Add(ctx, userID, productID, 4)
	requireConflict(t, err)

	_, err = svc.Add(ctx, userID, productID, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, productID, 2)
	requireConflict(t, err)
}

func TestAddRejectsBeyondCap(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := seedCart(t, db)
	productID := seedStockedProduct(t, db, "Bulk Pack", 5, 100)

	_, err := svc.Add(ctx, userID, productID, 11)
	requireConflict(t, err)

	item, err := svc.Add(ctx, userID, productID, 10)
	require.NoError(t, err)
	assert.Equal(t, MaxLineQuantity, item.Quantity)

	_, err = svc.Add(ctx, userID, productID, 1)
	requireConflict(t, err)
}

func TestAddNegativeDeltaDecrements(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := seedCart(t, db)
	productID := seedStockedProduct(t, db, "Kettle", 40, 8)

	_, err := svc.Add(ctx, userID, productID, 5)
	require.NoError(t, err)

	item, err := svc.Add(ctx, userID, productID, -2)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	// Decrementing below one line item is a bounds violation, not a removal.
	_, err = svc.Add(ctx, userID, productID, -3)
	requireConflict(t, err)

	item, err = svc.SetQuantity(ctx, userID, productID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
}

func TestAddNegativeDeltaWithoutLine(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := seedCart(t, db)
	productID := seedStockedProduct(t, db, "Kettle", 40, 8)

	_, err := svc.Add(ctx, userID, productID, -2)
	requireConflict(t, err)

	total, err := svc.TotalQuantity(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStockCheckPrecedesCap(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := seedCart(t, db)
	productID := seedStockedProduct(t, db, "Kettle", 40, 5)

	_, err := svc.Add(ctx, userID, productID, 15)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "insufficient stock", typed.Message())
}

func TestSetQuantityIsAbsolute(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := seedCart(t, db)
	productID := seedStockedProduct(t, db, "Kettle", 40, 8)

	_, err := svc.Add(ctx, userID, productID, 5)
	require.NoError(t, err)

	item, err := svc.SetQuantity(ctx, userID, productID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
}

func TestSetQuantityRequiresExistingLine(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := seedCart(t, db)
	productID := seedStockedProduct(t, db, "Kettle", 40, 8)

	_, err := svc.SetQuantity(ctx, userID, productID, 2)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRemoveChecksOwnership(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	owner := seedCart(t, db)
	intruder := seedCart(t, db)
	productID := seedStockedProduct(t, db, "Kettle", 40, 8)

	item, err := svc.Add(ctx, owner, productID, 1)
	require.NoError(t, err)

	err = svc.Remove(ctx, intruder, item.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	require.NoError(t, svc.Remove(ctx, owner, item.ID))

	total, err := svc.TotalQuantity(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListComputesLineTotals(t *testing.T) {
	db := setupCartTestDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	userID := seedCart(t, db)
	kettle := seedStockedProduct(t, db, "Kettle", 39.99, 8)
	lamp := seedStockedProduct(t, db, "Lamp", 12.50, 8)

	_, err := svc.Add(ctx, userID, kettle, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, lamp, 3)
	require.NoError(t, err)

	view, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 2, view.TotalQuantity)
	assert.InDelta(t, 79.98, view.Items[0].LineTotal, 0.001)
	assert.InDelta(t, 37.50, view.Items[1].LineTotal, 0.001)
	assert.InDelta(t, 117.48, view.Subtotal, 0.001)
}
