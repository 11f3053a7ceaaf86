package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jewelpalace/storefront/internal/metrics"
	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/pricing"
)

// CartService prices carts against the live catalog. Carts themselves are
// held by the client; nothing here is persisted.
type CartService struct {
	products  *ProductService
	discounts *DiscountService
	metrics   *metrics.AppMetrics
	now       func() time.Time
}

// NewCartService creates a new cart service
func NewCartService(products *ProductService, discounts *DiscountService, metrics *metrics.AppMetrics) *CartService {
	return &CartService{
		products:  products,
		discounts: discounts,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Quote prices a cart from the live catalog, optionally applying a coupon
func (s *CartService) Quote(ctx context.Context, req models.QuoteRequest) (*models.Quote, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	items := make([]models.LineItem, 0, len(req.Items))
	for i, it := range req.Items {
		p, err := s.products.lookup(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				return nil, invalid(fmt.Sprintf("items[%d].productId", i), "product %s does not exist", it.ProductID)
			}
			return nil, err
		}
		if !p.Enabled {
			return nil, invalid(fmt.Sprintf("items[%d].productId", i), "product %s is not available", it.ProductID)
		}
		if it.Quantity > p.Stock {
			return nil, invalid(fmt.Sprintf("items[%d].quantity", i), "only %d of %s in stock", p.Stock, p.Name)
		}

		items = append(items, models.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     pricing.Float(pricing.ProductPrice(*p)),
			Discount:  p.Discount,
			Quantity:  it.Quantity,
			Image:     p.Image,
			Weight:    p.Weight,
		})
	}

	subtotal := pricing.Subtotal(items)
	couponOff := decimal.Zero
	code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	if code != "" {
		d, err := s.discounts.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, ErrDiscountNotFound) {
				return nil, invalid("couponCode", "coupon %s does not exist", code)
			}
			return nil, err
		}
		off, err := pricing.CouponDiscount(*d, subtotal, s.now())
		if err != nil {
			return nil, invalid("couponCode", "%s", err.Error())
		}
		couponOff = off
	}

	totals := pricing.Compute(subtotal, couponOff)
	s.metrics.QuotesComputed.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Bool("coupon_applied", code != ""),
	})...))

	return &models.Quote{
		Items:      items,
		Subtotal:   pricing.Float(totals.Subtotal),
		CouponCode: code,
		Discount:   pricing.Float(totals.Discount),
		Shipping:   pricing.Float(totals.Shipping),
		Tax:        pricing.Float(totals.Tax),
		Total:      pricing.Float(totals.Total),
	}, nil
}
