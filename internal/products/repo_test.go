package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marisca-pt/marisca-backend/pkg/db/models"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  is_available INTEGER NOT NULL DEFAULT 1,
  fulfillment_states TEXT NOT NULL DEFAULT 'raw',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	return db
}

func newProduct(t *testing.T, db *gorm.DB, stock int, available bool) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:                uuid.New(),
		Name:              "Sapateira " + uuid.NewString()[:8],
		PriceCents:        1850,
		Stock:             stock,
		IsAvailable:       available,
		FulfillmentStates: "raw,cooked",
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestProductsRepoDecrementStock(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	product := newProduct(t, db, 5, true)

	require.NoError(t, repo.DecrementStock(context.Background(), product.ID, 3))

	found, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)
}

func TestProductsRepoDecrementStockNeverGoesNegative(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	product := newProduct(t, db, 2, true)

	err := repo.DecrementStock(context.Background(), product.ID, 3)
	require.ErrorIs(t, err, ErrInsufficientStock)

	found, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock, "failed decrement must leave stock untouched")

	// Draining to exactly zero is allowed.
	require.NoError(t, repo.DecrementStock(context.Background(), product.ID, 2))
	found, err = repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Stock)
}

func TestProductsRepoDecrementStockRejectsNonPositiveQuantity(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	product := newProduct(t, db, 5, true)

	require.Error(t, repo.DecrementStock(context.Background(), product.ID, 0))
	require.Error(t, repo.DecrementStock(context.Background(), product.ID, -1))
}

func TestProductsRepoUnavailableProductRoundTrips(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	hidden := newProduct(t, db, 5, false)

	found, err := repo.FindByID(context.Background(), hidden.ID)
	require.NoError(t, err)
	assert.False(t, found.IsAvailable, "is_available=false must survive the insert")
}

func TestProductsRepoListOnlyAvailable(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	visible := newProduct(t, db, 5, true)
	hidden := newProduct(t, db, 5, false)

	items, err := repo.List(context.Background(), Filters{OnlyAvailable: true})
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		ids[item.ID] = true
		assert.True(t, item.IsAvailable)
	}
	assert.True(t, ids[visible.ID])
	assert.False(t, ids[hidden.ID])
}

func TestProductsRepoFindByIDs(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	first := newProduct(t, db, 5, true)
	second := newProduct(t, db, 5, true)

	items, err := repo.FindByIDs(context.Background(), []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
