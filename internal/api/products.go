package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"

	"github.com/jewelpalace/storefront/internal/catalog"
)

var filterParams = []string{"q", "category", "material", "minPrice", "maxPrice", "sort"}

// ListProductsHandler handles GET /products. Without filter parameters every
// product is returned, disabled ones included.
func (a *App) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := a.productService.ListProducts(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	values := r.URL.Query()
	if hasAny(values, filterParams) {
		q, err := parseQuery(values)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		products = catalog.Filter(products, q)
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// GetProductHandler handles GET /products/{id}
func (a *App) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := a.productService.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

// CreateProductHandler handles POST /admin/products
func (a *App) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var attrs map[string]any
	if err := decodeJSON(r, &attrs); err != nil {
		badBody(w, err)
		return
	}

	product, err := a.productService.CreateProduct(r.Context(), attrs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"product": product,
		"message": "Product created successfully",
	})
}

// UpdateProductHandler handles PUT /admin/products/{id}
func (a *App) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var attrs map[string]any
	if err := decodeJSON(r, &attrs); err != nil {
		badBody(w, err)
		return
	}

	product, err := a.productService.UpdateProduct(r.Context(), mux.Vars(r)["id"], attrs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"product": product,
		"message": "Product updated successfully",
	})
}

// DeleteProductHandler handles DELETE /admin/products/{id}
func (a *App) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.productService.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product deleted successfully"})
}

func hasAny(values url.Values, keys []string) bool {
	for _, k := range keys {
		if _, ok := values[k]; ok {
			return true
		}
	}
	return false
}

// listParam accepts both ?category=a&category=b and ?category=a,b
func listParam(values url.Values, key string) []string {
	var out []string
	for _, raw := range values[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

type paramError struct {
	name string
}

func (e *paramError) Error() string {
	return e.name + " must be a non-negative number"
}

func floatParam(values url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil || v < 0 {
		return 0, &paramError{name: key}
	}
	return v, nil
}

func parseQuery(values url.Values) (catalog.Query, error) {
	minPrice, err := floatParam(values, "minPrice")
	if err != nil {
		return catalog.Query{}, err
	}
	maxPrice, err := floatParam(values, "maxPrice")
	if err != nil {
		return catalog.Query{}, err
	}

	return catalog.Query{
		Text:       strings.TrimSpace(values.Get("q")),
		Categories: listParam(values, "category"),
		Materials:  listParam(values, "material"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Sort:       catalog.ParseSort(values.Get("sort")),
	}, nil
}
