package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jewelpalace/storefront/internal/middleware"
	"github.com/jewelpalace/storefront/internal/models"
)

// CreateOrderHandler handles POST /orders/create
func (a *App) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var req models.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	order, err := a.orderService.CreateOrder(r.Context(), user.ID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"orderId": order.ID,
		"order":   order,
		"message": "Order created successfully",
	})
}

// ListUserOrdersHandler handles GET /orders/user
func (a *App) ListUserOrdersHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	orders, err := a.orderService.ListUserOrders(r.Context(), user.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// GetOrderHandler handles GET /orders/{id}
func (a *App) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	order, err := a.orderService.GetOrder(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// ListAllOrdersHandler handles GET /admin/orders
func (a *App) ListAllOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := a.orderService.ListAllOrders(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// UpdateOrderStatusHandler handles PUT /admin/orders/{id}/status
func (a *App) UpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	order, err := a.orderService.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order":   order,
		"message": "Order updated successfully",
	})
}

// ListPaymentsHandler handles GET /admin/payments
func (a *App) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	payments, summary, err := a.orderService.ListPayments(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"summary":  summary,
	})
}

// QuoteHandler handles POST /cart/quote
func (a *App) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	var req models.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	quote, err := a.cartService.Quote(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quote": quote})
}
