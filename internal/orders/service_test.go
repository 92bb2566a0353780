package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakline/oakline-backend/pkg/config"
	"github.com/oakline/oakline-backend/pkg/db/models"
	pkgerrors "github.com/oakline/oakline-backend/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{`
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
);`, `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  full_name TEXT NOT NULL,
  line TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  zipcode TEXT NOT NULL,
  phone TEXT NOT NULL,
  default_address INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  address_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL DEFAULT 'cod',
  is_paid INTEGER NOT NULL DEFAULT 0,
  total REAL NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price REAL NOT NULL,
  created_at DATETIME
);`}
	for _, schema := range schemas {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

func newOrderService(t *testing.T, db *gorm.DB, cfg config.OrdersConfig) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: NewRepository(db), Config: cfg})
	require.NoError(t, err)
	return svc
}

type orderFixture struct {
	userID    uuid.UUID
	addressID uuid.UUID
	cartID    uuid.UUID
}

func seedOrderFixture(t *testing.T, db *gorm.DB) orderFixture {
	t.Helper()
	userID := uuid.New()
	address := &models.Address{
		ID:       uuid.New(),
		UserID:   userID,
		FullName: "Ada Lovelace",
		Line:     "12 Analytical Way",
		City:     "London",
		State:    "LDN",
		Zipcode:  "E1 6AN",
		Phone:    "555-0100",
	}
	require.NoError(t, db.Create(address).Error)
	cart := &models.Cart{ID: uuid.New(), UserID: userID}
	require.NoError(t, db.Create(cart).Error)
	return orderFixture{userID: userID, addressID: address.ID, cartID: cart.ID}
}

func seedOrderProduct(t *testing.T, db *gorm.DB, price float64, stock int) uuid.UUID {
	t.Helper()
	product := &models.Product{ID: uuid.New(), Title: "Widget", Price: price, Stock: stock}
	require.NoError(t, db.Create(product).Error)
	return product.ID
}

func seedCartLine(t *testing.T, db *gorm.DB, cartID, productID uuid.UUID, qty int) uuid.UUID {
	t.Helper()
	line := &models.CartItem{ID: uuid.New(), CartID: cartID, ProductID: productID, Quantity: qty}
	require.NoError(t, db.Create(line).Error)
	return line.ID
}

func TestCreateOrderHappyPath(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db, config.OrdersConfig{})
	ctx := context.Background()

	fx := seedOrderFixture(t, db)
	productID := seedOrderProduct(t, db, 25, 10)
	lineID := seedCartLine(t, db, fx.cartID, productID, 2)

	result, err := svc.Create(ctx, fx.userID, CreateInput{
		AddressID: fx.addressID,
		Total:     50,
		Items: []CreateItemInput{
			{ProductID: productID, Quantity: 2, CartItemID: &lineID},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "pending", result.Order.Status)
	assert.Equal(t, "cod", result.Order.PaymentMethod)
	assert.False(t, result.Order.IsPaid)
	assert.InDelta(t, 50, result.Order.Total, 0.001)
	assert.Equal(t, "London", result.Order.Address.City)
	require.Len(t, result.Items, 1)
	assert.True(t, result.Items[0].Accepted)

	// Consumed cart line is gone.
	var lineCount int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&lineCount).Error)
	assert.Zero(t, lineCount)

	// Stock untouched by default.
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	assert.Equal(t, 10, product.Stock)
	assert.Equal(t, 0, product.Sold)
}

func TestCreateOrderSkipsInvalidItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db, config.OrdersConfig{})
	ctx := context.Background()

	fx := seedOrderFixture(t, db)
	good := seedOrderProduct(t, db, 10, 5)
	lowStock := seedOrderProduct(t, db, 10, 1)
	bulk := seedOrderProduct(t, db, 10, 50)

	result, err := svc.Create(ctx, fx.userID, CreateInput{
		AddressID: fx.addressID,
		Total:     30,
		Items: []CreateItemInput{
			{ProductID: good, Quantity: 2},
			{ProductID: lowStock, Quantity: 3},
			{ProductID: uuid.New(), Quantity: 1},
			{ProductID: bulk, Quantity: 11},
		},
	})
	require.NoError(t, err, "bad lines are skipped, not fatal")
	require.Len(t, result.Items, 4)
	assert.True(t, result.Items[0].Accepted)
	assert.False(t, result.Items[1].Accepted)
	assert.Equal(t, "insufficient stock", result.Items[1].Reason)
	assert.False(t, result.Items[2].Accepted)
	assert.Equal(t, "product not found", result.Items[2].Reason)
	assert.False(t, result.Items[3].Accepted)
	assert.Equal(t, "quantity cap exceeded", result.Items[3].Reason)

	require.Len(t, result.Order.Items, 1)
}

func TestCreateOrderAllItemsInvalid(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db, config.OrdersConfig{})

	fx := seedOrderFixture(t, db)
	_, err := svc.Create(context.Background(), fx.userID, CreateInput{
		AddressID: fx.addressID,
		Items:     []CreateItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount, "rolled back")
}

func TestCreateOrderForeignAddress(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db, config.OrdersConfig{})

	fx := seedOrderFixture(t, db)
	other := seedOrderFixture(t, db)
	productID := seedOrderProduct(t, db, 10, 5)

	_, err := svc.Create(context.Background(), fx.userID, CreateInput{
		AddressID: other.addressID,
		Items:     []CreateItemInput{{ProductID: productID, Quantity: 1}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateOrderServerTotals(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db, config.OrdersConfig{ServerTotals: true})

	fx := seedOrderFixture(t, db)
	productID := seedOrderProduct(t, db, 19.99, 5)

	result, err := svc.Create(context.Background(), fx.userID, CreateInput{
		AddressID: fx.addressID,
		Total:     1,
		Items:     []CreateItemInput{{ProductID: productID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 59.97, result.Order.Total, 0.001, "client total is ignored")
}

func TestCreateOrderDecrementStock(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db, config.OrdersConfig{DecrementStock: true})

	fx := seedOrderFixture(t, db)
	productID := seedOrderProduct(t, db, 10, 5)

	_, err := svc.Create(context.Background(), fx.userID, CreateInput{
		AddressID: fx.addressID,
		Total:     30,
		Items:     []CreateItemInput{{ProductID: productID, Quantity: 3}},
	})
	require.NoError(t, err)

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	assert.Equal(t, 2, product.Stock)
	assert.Equal(t, 3, product.Sold)
}

func TestGetAndListScopeToOwner(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db, config.OrdersConfig{})
	ctx := context.Background()

	fx := seedOrderFixture(t, db)
	stranger := seedOrderFixture(t, db)
	productID := seedOrderProduct(t, db, 10, 5)

	created, err := svc.Create(ctx, fx.userID, CreateInput{
		AddressID: fx.addressID,
		Total:     10,
		Items:     []CreateItemInput{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)

	loaded, err := svc.Get(ctx, fx.userID, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Order.ID, loaded.ID)
	assert.Equal(t, "London", loaded.Address.City)

	_, err = svc.Get(ctx, stranger.userID, created.Order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	mine, err := svc.List(ctx, fx.userID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.List(ctx, stranger.userID)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	items, err := svc.ListItems(ctx, fx.userID, created.Order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, productID, items[0].ProductID)
}

func TestCreateOrderLeavesUnmatchedCartLines(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrderService(t, db, config.OrdersConfig{})
	ctx := context.Background()

	fx := seedOrderFixture(t, db)
	bought := seedOrderProduct(t, db, 10, 5)
	kept := seedOrderProduct(t, db, 15, 5)
	boughtLine := seedCartLine(t, db, fx.cartID, bought, 1)
	keptLine := seedCartLine(t, db, fx.cartID, kept, 2)

	_, err := svc.Create(ctx, fx.userID, CreateInput{
		AddressID: fx.addressID,
		Total:     10,
		Items:     []CreateItemInput{{ProductID: bought, Quantity: 1, CartItemID: &boughtLine}},
	})
	require.NoError(t, err)

	var remaining []models.CartItem
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, keptLine, remaining[0].ID)
}
