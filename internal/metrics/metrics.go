package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/pkg/config"
)

// AppMetrics holds all application metrics
type AppMetrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Record store metrics
	StoreOpsTotal   metric.Int64Counter
	StoreOpDuration metric.Float64Histogram

	// Business Metrics
	OrdersCreated      metric.Int64Counter
	OrderStatusChanges metric.Int64Counter
	RevenueTotal       metric.Float64Counter
	ProductsViewed     metric.Int64Counter
	InventoryLevel     metric.Int64Gauge
	CatalogSize        metric.Int64Gauge
	UserRegistrations  metric.Int64Counter
	UserLogins         metric.Int64Counter
	QuotesComputed     metric.Int64Counter

	// Application Metrics
	CacheHits   metric.Int64Counter
	CacheMisses metric.Int64Counter

	// Service name for adding to all metrics
	serviceName string
	meter       metric.Meter
}

// SigNoz default histogram buckets in milliseconds, expanded to 60s
var buckets = []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000, 15000, 20000, 30000, 45000, 60000}

// InitMetrics initializes the OTLP meter provider and the application instruments
func InitMetrics(ctx context.Context, cfg *config.Config) (*AppMetrics, *sdkmetric.MeterProvider, error) {
	// env attributes first, explicit service attributes take precedence
	envRes, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		envRes = resource.Empty()
	}

	explicitRes, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.OTELDeploymentEnvironment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create explicit resource: %w", err)
	}

	res, err := resource.Merge(envRes, explicitRes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to merge resources: %w", err)
	}

	// WithEndpoint expects host:port without a scheme, e.g. localhost:4318
	// or ingest.<region>.signoz.cloud:443
	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.OTELExporterOTLPEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}

	if cfg.OTELExporterOTLPHeaders != "" {
		headers := parseHeaders(cfg.OTELExporterOTLPHeaders)
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(headers))
	}

	if cfg.OTELExporterOTLPInsecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(10*time.Second),
	)

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	zap.L().Info("metrics exporter configured",
		zap.String("endpoint", cfg.OTELExporterOTLPEndpoint),
		zap.String("path", "/v1/metrics"),
		zap.Bool("insecure", cfg.OTELExporterOTLPInsecure),
		zap.String("service", cfg.OTELServiceName),
		zap.Duration("interval", 10*time.Second),
	)

	appMetrics, err := NewAppMetrics(meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		return nil, nil, err
	}
	return appMetrics, meterProvider, nil
}

// NewAppMetrics creates the application instruments on meter
func NewAppMetrics(meter metric.Meter, serviceName string) (*AppMetrics, error) {
	m := &AppMetrics{serviceName: serviceName, meter: meter}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	if m.HTTPRequestsErrors, err = meter.Int64Counter(
		"http.server.request.error.count",
		metric.WithDescription("Total number of HTTP error requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http errors counter: %w", err)
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	if m.StoreOpsTotal, err = meter.Int64Counter(
		"record_store.operations.count",
		metric.WithDescription("Total number of record store operations"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create store operations counter: %w", err)
	}

	if m.StoreOpDuration, err = meter.Float64Histogram(
		"record_store.operations.duration",
		metric.WithDescription("Record store operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create store duration histogram: %w", err)
	}

	if m.OrdersCreated, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}

	if m.OrderStatusChanges, err = meter.Int64Counter(
		"order_status_changes_total",
		metric.WithDescription("Total number of order status updates"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create order status counter: %w", err)
	}

	if m.RevenueTotal, err = meter.Float64Counter(
		"revenue_total",
		metric.WithDescription("Total revenue generated"),
		metric.WithUnit("INR"),
	); err != nil {
		return nil, fmt.Errorf("failed to create revenue counter: %w", err)
	}

	if m.ProductsViewed, err = meter.Int64Counter(
		"products_viewed_total",
		metric.WithDescription("Total number of product views"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create products viewed counter: %w", err)
	}

	if m.InventoryLevel, err = meter.Int64Gauge(
		"inventory_level",
		metric.WithDescription("Current inventory level for products"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create inventory gauge: %w", err)
	}

	if m.CatalogSize, err = meter.Int64Gauge(
		"catalog_products_count",
		metric.WithDescription("Number of products in the catalog"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create catalog size gauge: %w", err)
	}

	if m.UserRegistrations, err = meter.Int64Counter(
		"user_registrations_total",
		metric.WithDescription("Total number of user registrations"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create registrations counter: %w", err)
	}

	if m.UserLogins, err = meter.Int64Counter(
		"user_logins_total",
		metric.WithDescription("Total number of login attempts"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	if m.QuotesComputed, err = meter.Int64Counter(
		"cart_quotes_total",
		metric.WithDescription("Total number of server-side cart quotes"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create quotes counter: %w", err)
	}

	if m.CacheHits, err = meter.Int64Counter(
		"cache_hits_total",
		metric.WithDescription("Total number of cache hits"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	if m.CacheMisses, err = meter.Int64Counter(
		"cache_misses_total",
		metric.WithDescription("Total number of cache misses"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	return m, nil
}

// Meter returns the meter the instruments were created on
func (m *AppMetrics) Meter() metric.Meter {
	return m.meter
}

// WithServiceName adds service.name to attributes
func (m *AppMetrics) WithServiceName(attrs []attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, attribute.String("service.name", m.serviceName))
}

// RecordStoreOp records one record store call
func (m *AppMetrics) RecordStoreOp(ctx context.Context, operation, kind, backend string, start time.Time, err error) {
	duration := time.Since(start).Milliseconds()

	status := "success"
	if err != nil {
		status = "error"
	}

	attrs := m.WithServiceName([]attribute.KeyValue{
		attribute.String("store.operation", operation),
		attribute.String("store.kind", kind),
		attribute.String("store.backend", backend),
		attribute.String("status", status),
	})

	m.StoreOpsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.StoreOpDuration.Record(ctx, float64(duration), metric.WithAttributes(attrs...))
}

// parseHeaders parses header string in format "key1=value1,key2=value2"
// and returns a map of headers
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}

	pairs := strings.Split(headerStr, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
