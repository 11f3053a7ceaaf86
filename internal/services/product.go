package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/metrics"
	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/store"
)

const productCacheTTL = 5 * time.Minute

// ProductCache holds recently read products. Every write bumps the id's
// generation, and a read only fills the cache when no write landed since it
// began.
type ProductCache struct {
	mu    sync.RWMutex
	items map[string]cachedProduct
	gens  map[string]uint64
}

type cachedProduct struct {
	product models.Product
	expires time.Time
}

func NewProductCache() *ProductCache {
	return &ProductCache{
		items: make(map[string]cachedProduct),
		gens:  make(map[string]uint64),
	}
}

func (c *ProductCache) get(id string, now time.Time) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.items[id]
	if !ok || !now.Before(cached.expires) {
		return models.Product{}, false
	}
	return cached.product, true
}

// generation is taken before reading the store
func (c *ProductCache) generation(id string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[id]
}

// fill caches a product read from the store unless a write has landed since gen
func (c *ProductCache) fill(p models.Product, gen uint64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[p.ID] != gen {
		return
	}
	c.items[p.ID] = cachedProduct{product: p, expires: now.Add(productCacheTTL)}
}

// stored records a successful write
func (c *ProductCache) stored(p models.Product, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[p.ID]++
	c.items[p.ID] = cachedProduct{product: p, expires: now.Add(productCacheTTL)}
}

// removed records a delete or a write whose outcome is unknown
func (c *ProductCache) removed(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[id]++
	delete(c.items, id)
}

// ProductService handles catalog operations
type ProductService struct {
	store   store.Store
	metrics *metrics.AppMetrics
	cache   *ProductCache
	now     func() time.Time
}

// NewProductService creates a new product service
func NewProductService(st store.Store, metrics *metrics.AppMetrics) *ProductService {
	return &ProductService{
		store:   st,
		metrics: metrics,
		cache:   NewProductCache(),
		now:     time.Now,
	}
}

// immutable product keys a payload may not set
var productImmutable = []string{"id", "createdAt", "updatedAt"}

// ListProducts returns every product in insertion order
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := listRecords[models.Product](ctx, s.store, store.KindProduct)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.Before(products[j].CreatedAt)
		}
		return products[i].ID < products[j].ID
	})
	return products, nil
}

// GetProduct returns a product by ID and counts the view
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	viewAttrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("product_id", p.ID),
		attribute.String("product_category", p.Category),
	})
	s.metrics.ProductsViewed.Add(ctx, 1, metric.WithAttributes(viewAttrs...))

	return p, nil
}

// lookup reads through the cache without counting a view
func (s *ProductService) lookup(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := s.cache.get(id, s.now()); ok {
		s.metrics.CacheHits.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName(nil)...))
		return &p, nil
	}
	s.metrics.CacheMisses.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName(nil)...))

	gen := s.cache.generation(id)
	p, err := getRecord[models.Product](ctx, s.store, store.KindProduct, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	s.cache.fill(*p, gen, s.now())
	return p, nil
}

// CreateProduct builds a product from loosely typed attributes. Products are
// enabled unless the payload says otherwise.
func (s *ProductService) CreateProduct(ctx context.Context, attrs map[string]any) (*models.Product, error) {
	p := models.Product{Enabled: true}
	if err := mergeAttrs(attrs, &p, productImmutable...); err != nil {
		return nil, err
	}
	if err := validateStruct(p); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p.ID = newID("prod", now)
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := putRecord(ctx, s.store, store.KindProduct, p.ID, p); err != nil {
		return nil, err
	}
	s.cache.stored(p, s.now())

	zap.L().Info("product created", zap.String("productId", p.ID), zap.String("name", p.Name))
	return &p, nil
}

// UpdateProduct merges the present attributes onto the stored product
func (s *ProductService) UpdateProduct(ctx context.Context, id string, attrs map[string]any) (*models.Product, error) {
	existing, err := getRecord[models.Product](ctx, s.store, store.KindProduct, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	updated := *existing
	if err := mergeAttrs(attrs, &updated, productImmutable...); err != nil {
		return nil, err
	}
	if err := validateStruct(updated); err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now().UTC()

	if err := putRecord(ctx, s.store, store.KindProduct, id, updated); err != nil {
		s.cache.removed(id)
		return nil, err
	}
	s.cache.stored(updated, s.now())

	zap.L().Info("product updated", zap.String("productId", id))
	return &updated, nil
}

// DeleteProduct removes a product. Deleting a missing product succeeds.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, store.KindProduct, id)
	s.cache.removed(id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	zap.L().Info("product deleted", zap.String("productId", id))
	return nil
}

// SaveProduct upserts a fully formed product, keeping the stored createdAt
// when the product already exists
func (s *ProductService) SaveProduct(ctx context.Context, p models.Product) error {
	if existing, err := getRecord[models.Product](ctx, s.store, store.KindProduct, p.ID); err == nil {
		p.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to get product: %w", err)
	}

	if err := putRecord(ctx, s.store, store.KindProduct, p.ID, p); err != nil {
		s.cache.removed(p.ID)
		return err
	}
	s.cache.stored(p, s.now())
	return nil
}

// RecordInventory publishes the stock of every product and the catalog size
func (s *ProductService) RecordInventory(ctx context.Context) error {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return err
	}

	for _, p := range products {
		invAttrs := s.metrics.WithServiceName([]attribute.KeyValue{
			attribute.String("product_id", p.ID),
			attribute.String("product_category", p.Category),
			attribute.Bool("enabled", p.Enabled),
		})
		s.metrics.InventoryLevel.Record(ctx, int64(p.Stock), metric.WithAttributes(invAttrs...))
	}
	s.metrics.CatalogSize.Record(ctx, int64(len(products)), metric.WithAttributes(s.metrics.WithServiceName(nil)...))

	zap.L().Debug("inventory metrics recorded", zap.Int("products", len(products)))
	return nil
}
