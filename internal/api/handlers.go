package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/metrics"
	"github.com/jewelpalace/storefront/internal/middleware"
	"github.com/jewelpalace/storefront/internal/services"
	"github.com/jewelpalace/storefront/pkg/config"
)

// App holds application dependencies
type App struct {
	config          *config.Config
	metrics         *metrics.AppMetrics
	auth            *middleware.Auth
	productService  *services.ProductService
	cartService     *services.CartService
	orderService    *services.OrderService
	userService     *services.UserService
	discountService *services.DiscountService
	now             func() time.Time
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.Config,
	m *metrics.AppMetrics,
	ps *services.ProductService,
	cs *services.CartService,
	os *services.OrderService,
	us *services.UserService,
	ds *services.DiscountService,
) *App {
	return &App{
		config:          cfg,
		metrics:         m,
		auth:            middleware.NewAuth(us),
		productService:  ps,
		cartService:     cs,
		orderService:    os,
		userService:     us,
		discountService: ds,
		now:             time.Now,
	}
}

// Handler builds the router and wraps it in CORS so preflight requests are
// answered before route matching
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()
	a.SetupRoutes(r)
	return middleware.CORSMiddleware(r)
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.ErrorHandlerMiddleware)
	r.Use(middleware.MetricsMiddleware(a.metrics))
	setFallbacks(r)

	api := r
	if a.config.RoutePrefix != "" {
		api = r.PathPrefix(a.config.RoutePrefix).Subrouter()
		setFallbacks(api)
	}

	// Products
	api.HandleFunc("/products", a.ListProductsHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", a.GetProductHandler).Methods(http.MethodGet)
	api.HandleFunc("/admin/products", a.auth.RequireAdmin(a.CreateProductHandler)).Methods(http.MethodPost)
	api.HandleFunc("/admin/products/{id}", a.auth.RequireAdmin(a.UpdateProductHandler)).Methods(http.MethodPut)
	api.HandleFunc("/admin/products/{id}", a.auth.RequireAdmin(a.DeleteProductHandler)).Methods(http.MethodDelete)

	// Cart
	api.HandleFunc("/cart/quote", a.QuoteHandler).Methods(http.MethodPost)

	// Orders
	api.HandleFunc("/orders/create", a.auth.RequireUser(a.CreateOrderHandler)).Methods(http.MethodPost)
	api.HandleFunc("/orders/user", a.auth.RequireUser(a.ListUserOrdersHandler)).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", a.auth.RequireUser(a.GetOrderHandler)).Methods(http.MethodGet)
	api.HandleFunc("/admin/orders", a.auth.RequireAdmin(a.ListAllOrdersHandler)).Methods(http.MethodGet)
	api.HandleFunc("/admin/orders/{id}/status", a.auth.RequireAdmin(a.UpdateOrderStatusHandler)).Methods(http.MethodPut)
	api.HandleFunc("/admin/payments", a.auth.RequireAdmin(a.ListPaymentsHandler)).Methods(http.MethodGet)

	// Discounts
	api.HandleFunc("/admin/discounts", a.auth.RequireAdmin(a.ListDiscountsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/admin/discounts", a.auth.RequireAdmin(a.CreateDiscountHandler)).Methods(http.MethodPost)
	api.HandleFunc("/admin/discounts/{id}", a.auth.RequireAdmin(a.UpdateDiscountHandler)).Methods(http.MethodPut)
	api.HandleFunc("/admin/discounts/{id}", a.auth.RequireAdmin(a.DeleteDiscountHandler)).Methods(http.MethodDelete)

	// Users
	api.HandleFunc("/auth/register", a.RegisterHandler).Methods(http.MethodPost)
	api.HandleFunc("/admin/users", a.auth.RequireAdmin(a.CreateAdminHandler)).Methods(http.MethodPost)
	api.HandleFunc("/seed-demo-data", a.SeedDemoDataHandler).Methods(http.MethodPost)
	api.HandleFunc("/health", a.HealthHandler).Methods(http.MethodGet)

	// Session endpoints live outside the prefix
	r.HandleFunc("/auth/v1/token", a.TokenHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/v1/user", a.auth.RequireUser(a.CurrentUserHandler)).Methods(http.MethodGet)
	r.HandleFunc("/auth/v1/user", a.auth.RequireUser(a.UpdateProfileHandler)).Methods(http.MethodPut)
	if a.config.RoutePrefix != "" {
		r.HandleFunc("/health", a.HealthHandler).Methods(http.MethodGet)
	}
}

func setFallbacks(r *mux.Router) {
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(notFoundHandler)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

// HealthHandler handles GET /health
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": a.now().UTC().Format(time.RFC3339),
		"backend":   a.config.StoreBackend,
	})
}

// SeedDemoDataHandler handles POST /seed-demo-data
func (a *App) SeedDemoDataHandler(w http.ResponseWriter, r *http.Request) {
	result, err := services.SeedDemoData(r.Context(), a.productService, a.userService)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	zap.L().Info("demo data seeded over http", zap.Int("products", result.ProductsCreated))

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Demo data seeded successfully",
		"productsCreated": result.ProductsCreated,
		"adminEmail":      result.AdminEmail,
		"userEmail":       result.UserEmail,
	})
}
