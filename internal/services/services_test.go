package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/crypto/bcrypt"

	"github.com/jewelpalace/storefront/internal/metrics"
	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/store"
)

// stepClock advances one second on every reading
type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type testEnv struct {
	store     *store.MemoryStore
	products  *ProductService
	orders    *OrderService
	cart      *CartService
	users     *UserService
	discounts *DiscountService
	clock     *stepClock
}

func newTestMetrics(t *testing.T) *metrics.AppMetrics {
	t.Helper()
	m, err := metrics.NewAppMetrics(noop.NewMeterProvider().Meter("test"), "storefront-test")
	require.NoError(t, err)
	return m
}

func testIdentity() IdentityConfig {
	return IdentityConfig{
		Secret:       []byte("test-secret"),
		TTL:          time.Hour,
		BcryptCost:   bcrypt.MinCost,
		AdminByEmail: true,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	m := newTestMetrics(t)
	clock := &stepClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}

	products := NewProductService(st, m)
	products.now = clock.now
	discounts := NewDiscountService(st)
	discounts.now = clock.now
	orders := NewOrderService(st, m)
	orders.now = clock.now
	cart := NewCartService(products, discounts, m)
	cart.now = clock.now
	users := NewUserService(st, m, testIdentity())

	return &testEnv{
		store:     st,
		products:  products,
		orders:    orders,
		cart:      cart,
		users:     users,
		discounts: discounts,
		clock:     clock,
	}
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	if field != "" {
		require.Equal(t, field, verr.Field)
	}
}

func sampleAddress() models.Address {
	return models.Address{
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		Phone:    "9876543210",
		Address:  "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		Pincode:  "560001",
	}
}
