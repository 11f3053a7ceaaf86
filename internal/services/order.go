package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/metrics"
	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/pricing"
	"github.com/jewelpalace/storefront/internal/store"
)

// OrderService handles checkout, order history and fulfilment updates
type OrderService struct {
	store   store.Store
	metrics *metrics.AppMetrics
	now     func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(st store.Store, metrics *metrics.AppMetrics) *OrderService {
	return &OrderService{
		store:   st,
		metrics: metrics,
		now:     time.Now,
	}
}

// NormalizePaymentMethod maps accepted spellings onto online or cod
func NormalizePaymentMethod(method string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "online", "razorpay":
		return models.PaymentOnline, true
	case "cod", "cash-on-delivery", "cash_on_delivery":
		return models.PaymentCOD, true
	default:
		return "", false
	}
}

// CreateOrder places an order for userID. Caller totals are stored as given;
// when all of them are zero they are computed from the line items.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	method, ok := NormalizePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, invalid("paymentMethod", "must be online or cod")
	}

	subtotal, shipping, tax, total := req.Subtotal, req.Shipping, req.Tax, req.Total
	if subtotal == 0 && shipping == 0 && tax == 0 && total == 0 {
		totals := pricing.ForItems(req.Items)
		subtotal = pricing.Float(totals.Subtotal)
		shipping = pricing.Float(totals.Shipping)
		tax = pricing.Float(totals.Tax)
		total = pricing.Float(totals.Total)
	}

	paymentStatus := models.PaymentStatusPending
	if method == models.PaymentOnline {
		paymentStatus = models.PaymentStatusPaid
	}

	now := s.now().UTC()
	order := models.Order{
		ID:            newOrderID(now),
		UserID:        userID,
		Items:         append([]models.LineItem(nil), req.Items...),
		Address:       req.Address,
		Subtotal:      subtotal,
		Shipping:      shipping,
		Tax:           tax,
		Total:         total,
		PaymentMethod: method,
		PaymentStatus: paymentStatus,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := putRecord(ctx, s.store, store.KindOrder, order.ID, order); err != nil {
		return nil, err
	}

	orderAttrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("payment_method", method),
		attribute.String("payment_status", paymentStatus),
	})
	s.metrics.OrdersCreated.Add(ctx, 1, metric.WithAttributes(orderAttrs...))
	s.metrics.RevenueTotal.Add(ctx, total, metric.WithAttributes(orderAttrs...))

	zap.L().Info("order created",
		zap.String("orderId", order.ID),
		zap.String("userId", userID),
		zap.Int("items", len(order.Items)),
		zap.Float64("total", total),
		zap.String("paymentMethod", method),
	)
	return &order, nil
}

// ListUserOrders returns the orders owned by userID, newest first
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	all, err := s.ListAllOrders(ctx)
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0)
	for _, o := range all {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

// ListAllOrders returns every order, newest first
func (s *OrderService) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := listRecords[models.Order](ctx, s.store, store.KindOrder)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

// GetOrder returns an order visible to the requester. Orders owned by
// someone else look missing to non-admins.
func (s *OrderService) GetOrder(ctx context.Context, id string, requester *models.User) (*models.Order, error) {
	if requester == nil {
		return nil, ErrUnauthorized
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin && order.UserID != requester.ID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) load(ctx context.Context, id string) (*models.Order, error) {
	order, err := getRecord[models.Order](ctx, s.store, store.KindOrder, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// UpdateOrderStatus moves an order along its lifecycle. Empty tracking or
// courier values keep what is stored. Line items are never touched.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, req models.UpdateOrderStatusRequest) (*models.Order, error) {
	status, ok := ParseStatus(req.Status)
	if !ok {
		return nil, invalid("status", "unknown status %q", req.Status)
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(order.Status, status) {
		return nil, &TransitionError{From: order.Status, To: status}
	}

	from := order.Status
	order.Status = status
	if req.Tracking != "" {
		order.Tracking = req.Tracking
	}
	if req.CourierName != "" {
		order.CourierName = req.CourierName
	}
	order.UpdatedAt = s.now().UTC()

	if err := putRecord(ctx, s.store, store.KindOrder, order.ID, order); err != nil {
		return nil, err
	}

	statusAttrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("from_status", string(from)),
		attribute.String("to_status", string(status)),
	})
	s.metrics.OrderStatusChanges.Add(ctx, 1, metric.WithAttributes(statusAttrs...))

	zap.L().Info("order status updated",
		zap.String("orderId", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return order, nil
}

// ListPayments derives one payment record per order, newest first
func (s *OrderService) ListPayments(ctx context.Context) ([]models.Payment, models.PaymentSummary, error) {
	orders, err := s.ListAllOrders(ctx)
	if err != nil {
		return nil, models.PaymentSummary{}, err
	}

	payments := make([]models.Payment, 0, len(orders))
	collected := decimal.Zero
	var summary models.PaymentSummary
	for _, o := range orders {
		status := "pending"
		if o.PaymentStatus == models.PaymentStatusPaid {
			status = "success"
		}
		if o.Status == models.StatusCancelled && status == "pending" {
			status = "failed"
		}

		switch status {
		case "success":
			summary.Successful++
			collected = collected.Add(decimal.NewFromFloat(o.Total))
		case "pending":
			summary.Pending++
		default:
			summary.Failed++
		}

		payments = append(payments, models.Payment{
			ID:            "pay_" + o.ID,
			OrderID:       o.ID,
			PaymentID:     paymentReference(o),
			Amount:        o.Total,
			Method:        o.PaymentMethod,
			Status:        status,
			CustomerName:  o.Address.FullName,
			CustomerEmail: o.Address.Email,
			Date:          o.CreatedAt,
		})
	}
	summary.TotalCollected = pricing.Float(collected)
	return payments, summary, nil
}

func paymentReference(o models.Order) string {
	if o.PaymentMethod == models.PaymentCOD {
		return "COD-" + o.ID
	}
	return "TXN-" + o.ID
}
