package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/store"
)

func TestCreateProductCoercesAndDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.products.CreateProduct(ctx, map[string]any{
		"id":        "attacker-chosen",
		"name":      "Gold Ring",
		"category":  "Rings",
		"price":     "45000",
		"discount":  15.0,
		"rating":    "4.5",
		"stock":     3.0,
		"material":  "Gold",
		"createdAt": "1999-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(p.ID, "prod_"))
	assert.NotEqual(t, "attacker-chosen", p.ID)
	assert.Equal(t, int64(45000), p.Price)
	assert.Equal(t, 15, p.Discount)
	assert.Equal(t, 4.5, p.Rating)
	assert.True(t, p.Enabled)
	assert.Equal(t, 2025, p.CreatedAt.Year())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	got, err := env.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, *got)
}

func TestCreateProductHonoursExplicitDisable(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.products.CreateProduct(context.Background(), map[string]any{"name": "Hidden", "enabled": false})
	require.NoError(t, err)
	assert.False(t, p.Enabled)
}

func TestCreateProductRangeChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.products.CreateProduct(ctx, map[string]any{"name": "x", "discount": 120})
	requireValidation(t, err, "discount")

	_, err = env.products.CreateProduct(ctx, map[string]any{"name": "x", "price": -1})
	requireValidation(t, err, "price")

	_, err = env.products.CreateProduct(ctx, map[string]any{"name": "x", "rating": 5.5})
	requireValidation(t, err, "rating")

	_, err = env.products.CreateProduct(ctx, map[string]any{"name": "x", "price": "lots"})
	requireValidation(t, err, "")

	_, err = env.products.CreateProduct(ctx, map[string]any{"name": "x", "category": "Anklets"})
	requireValidation(t, err, "category")

	p, err := env.products.CreateProduct(ctx, map[string]any{"name": "x", "category": "Pendants"})
	require.NoError(t, err)
	_, err = env.products.UpdateProduct(ctx, p.ID, map[string]any{"category": "rings"})
	requireValidation(t, err, "category")
}

func TestUpdateProductMergesPartialPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.products.CreateProduct(ctx, map[string]any{
		"name": "Gold Ring", "price": 45000, "discount": 15, "material": "Gold", "stock": 4,
	})
	require.NoError(t, err)

	updated, err := env.products.UpdateProduct(ctx, p.ID, map[string]any{
		"id":    "other",
		"price": 40000,
	})
	require.NoError(t, err)

	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, int64(40000), updated.Price)
	assert.Equal(t, "Gold Ring", updated.Name)
	assert.Equal(t, 15, updated.Discount)
	assert.Equal(t, "Gold", updated.Material)
	assert.Equal(t, 4, updated.Stock)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))

	// the cached copy must not shadow the update
	got, err := env.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), got.Price)
}

func TestUpdateProductMissing(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.products.UpdateProduct(context.Background(), "prod_missing", map[string]any{"price": 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProductIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.products.CreateProduct(ctx, map[string]any{"name": "Bangle"})
	require.NoError(t, err)
	_, err = env.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, env.products.DeleteProduct(ctx, p.ID))
	require.NoError(t, env.products.DeleteProduct(ctx, p.ID))
	require.NoError(t, env.products.DeleteProduct(ctx, "never-existed"))

	_, err = env.products.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListProductsInInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		p, err := env.products.CreateProduct(ctx, map[string]any{"name": name})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	products, err := env.products.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	for i, p := range products {
		assert.Equal(t, ids[i], p.ID)
	}
}

func TestListProductsSkipsCorruptRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.products.CreateProduct(ctx, map[string]any{"name": "Good"})
	require.NoError(t, err)
	require.NoError(t, env.store.Put(ctx, store.KindProduct, "bad", []byte(`{"price":"not-a-number"}`)))

	products, err := env.products.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestRecordInventory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.products.CreateProduct(ctx, map[string]any{"name": "Ring", "stock": 2})
	require.NoError(t, err)
	assert.NoError(t, env.products.RecordInventory(ctx))
}

// gatedStore holds the first product Put until release is closed
type gatedStore struct {
	store.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Put(ctx context.Context, kind store.Kind, id string, record []byte) error {
	if kind == store.KindProduct && g.entered != nil {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.Store.Put(ctx, kind, id, record)
}

func TestUpdateProductVisibleAfterConcurrentRead(t *testing.T) {
	ctx := context.Background()
	gated := &gatedStore{Store: store.NewMemoryStore()}
	products := NewProductService(gated, newTestMetrics(t))

	p, err := products.CreateProduct(ctx, map[string]any{"name": "Gold Ring", "price": 45000})
	require.NoError(t, err)

	gated.entered = make(chan struct{})
	gated.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := products.UpdateProduct(ctx, p.ID, map[string]any{"price": 1})
		done <- err
	}()

	<-gated.entered
	during, err := products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), during.Price)

	close(gated.release)
	require.NoError(t, <-done)

	after, err := products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.Price)
}

func TestProductCacheDropsFillAfterWrite(t *testing.T) {
	c := NewProductCache()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	gen := c.generation("prod_1")
	c.stored(models.Product{ID: "prod_1", Price: 1}, now)
	c.fill(models.Product{ID: "prod_1", Price: 45000}, gen, now)

	got, ok := c.get("prod_1", now)
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Price)

	gen = c.generation("prod_1")
	c.removed("prod_1")
	c.fill(models.Product{ID: "prod_1", Price: 45000}, gen, now)
	_, ok = c.get("prod_1", now)
	assert.False(t, ok)

	c.fill(models.Product{ID: "prod_1", Price: 2}, c.generation("prod_1"), now)
	got, ok = c.get("prod_1", now)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Price)
}
