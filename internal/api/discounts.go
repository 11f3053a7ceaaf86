package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// ListDiscountsHandler handles GET /admin/discounts
func (a *App) ListDiscountsHandler(w http.ResponseWriter, r *http.Request) {
	discounts, err := a.discountService.ListDiscounts(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"discounts": discounts})
}

// CreateDiscountHandler handles POST /admin/discounts
func (a *App) CreateDiscountHandler(w http.ResponseWriter, r *http.Request) {
	var attrs map[string]any
	if err := decodeJSON(r, &attrs); err != nil {
		badBody(w, err)
		return
	}

	discount, err := a.discountService.CreateDiscount(r.Context(), attrs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"discount": discount,
		"message":  "Discount created successfully",
	})
}

// UpdateDiscountHandler handles PUT /admin/discounts/{id}
func (a *App) UpdateDiscountHandler(w http.ResponseWriter, r *http.Request) {
	var attrs map[string]any
	if err := decodeJSON(r, &attrs); err != nil {
		badBody(w, err)
		return
	}

	discount, err := a.discountService.UpdateDiscount(r.Context(), mux.Vars(r)["id"], attrs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"discount": discount,
		"message":  "Discount updated successfully",
	})
}

// DeleteDiscountHandler handles DELETE /admin/discounts/{id}
func (a *App) DeleteDiscountHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.discountService.DeleteDiscount(r.Context(), mux.Vars(r)["id"]); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Discount deleted successfully"})
}
