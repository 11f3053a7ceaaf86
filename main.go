package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/api"
	"github.com/jewelpalace/storefront/internal/db"
	"github.com/jewelpalace/storefront/internal/logging"
	"github.com/jewelpalace/storefront/internal/metrics"
	"github.com/jewelpalace/storefront/internal/services"
	"github.com/jewelpalace/storefront/internal/store"
	"github.com/jewelpalace/storefront/pkg/config"
)

func main() {
	cfg := config.LoadConfig()

	flush, err := logging.Init(logging.Options{Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	if err := cfg.Validate(); err != nil {
		zap.L().Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.UsesDefaultSecret() {
		zap.L().Warn("JWT_SECRET is not set, sessions are signed with the development secret")
	}

	ctx := context.Background()

	appMetrics, shutdownMetrics, err := setupMetrics(ctx, cfg)
	if err != nil {
		zap.L().Fatal("failed to initialize metrics", zap.Error(err))
	}
	defer shutdownMetrics()

	backend, err := openStore(ctx, cfg, appMetrics)
	if err != nil {
		zap.L().Fatal("failed to open record store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	st := store.Instrument(backend, appMetrics, cfg.StoreBackend)
	defer func() {
		if err := st.Close(); err != nil {
			zap.L().Warn("error closing record store", zap.Error(err))
		}
	}()

	productService := services.NewProductService(st, appMetrics)
	discountService := services.NewDiscountService(st)
	cartService := services.NewCartService(productService, discountService, appMetrics)
	orderService := services.NewOrderService(st, appMetrics)
	userService := services.NewUserService(st, appMetrics, services.IdentityConfig{
		Secret:       []byte(cfg.JWTSecret),
		TTL:          cfg.SessionTTL,
		BcryptCost:   cfg.BcryptCost,
		AdminByEmail: cfg.AdminByEmail,
		LaxLogin:     cfg.LaxLogin,
	})

	if cfg.SeedOnStart {
		seeded, err := services.SeedIfEmpty(ctx, productService, userService)
		if err != nil {
			zap.L().Warn("could not seed demo data", zap.Error(err))
		} else if seeded {
			zap.L().Info("empty catalog seeded with demo data")
		}
	}

	scheduler, err := startScheduler(cfg, productService, backend)
	if err != nil {
		zap.L().Fatal("failed to schedule inventory metrics", zap.Error(err))
	}

	app := api.NewApp(cfg, appMetrics, productService, cartService, orderService, userService, discountService)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.GetAppPortInt()),
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zap.L().Info("server starting",
			zap.Int("port", cfg.GetAppPortInt()),
			zap.String("prefix", cfg.RoutePrefix),
			zap.String("backend", cfg.StoreBackend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server forced to shutdown", zap.Error(err))
	}
	<-scheduler.Stop().Done()

	zap.L().Info("server exited")
}

// setupMetrics exports over OTLP when enabled and falls back to a no-op meter
func setupMetrics(ctx context.Context, cfg *config.Config) (*metrics.AppMetrics, func(), error) {
	if !cfg.MetricsEnabled {
		m, err := metrics.NewAppMetrics(noop.NewMeterProvider().Meter(cfg.OTELServiceName), cfg.OTELServiceName)
		return m, func() {}, err
	}

	m, provider, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("error shutting down meter provider", zap.Error(err))
		}
	}
	return m, shutdown, nil
}

func openStore(ctx context.Context, cfg *config.Config, m *metrics.AppMetrics) (store.Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(cfg.DataDir)
	case "bolt":
		return store.NewBoltStore(cfg.BoltPath)
	case "mongo":
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "mysql":
		return openSQL(ctx, db.MySQL, cfg.GetDSN(), cfg, m)
	case "postgres":
		return openSQL(ctx, db.Postgres, cfg.GetPostgresDSN(), cfg, m)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func openSQL(ctx context.Context, dialect db.Dialect, dsn string, cfg *config.Config, m *metrics.AppMetrics) (store.Store, error) {
	database, err := db.NewDB(dialect, dsn, m.Meter(), cfg.OTELServiceName)
	if err != nil {
		return nil, err
	}
	if err := database.InitSchema(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return database, nil
}

// startScheduler refreshes the inventory gauges, and the pool gauges for SQL
// backends, on the configured schedule
func startScheduler(cfg *config.Config, products *services.ProductService, backend store.Store) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(cfg.InventoryMetricsSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := products.RecordInventory(ctx); err != nil {
			zap.L().Warn("inventory metrics refresh failed", zap.Error(err))
		}
		if database, ok := backend.(*db.DB); ok {
			database.ReportPoolStats(ctx)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
