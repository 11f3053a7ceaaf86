// Package catalog filters and orders product listings for the browsing view.
package catalog

import (
	"sort"
	"strings"

	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/pricing"
)

// SortOrder names a listing order
type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortRating    SortOrder = "rating"
	SortNewest    SortOrder = "newest"
)

// ParseSort maps a query value to a SortOrder, falling back to featured
func ParseSort(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortPriceLow:
		return SortPriceLow
	case SortPriceHigh:
		return SortPriceHigh
	case SortRating:
		return SortRating
	case SortNewest:
		return SortNewest
	default:
		return SortFeatured
	}
}

// Query is the customer-facing filter. Zero values do not filter.
type Query struct {
	Text       string
	Categories []string
	Materials  []string
	MinPrice   float64
	MaxPrice   float64 // 0 means unbounded
	Sort       SortOrder
}

// Filter keeps the enabled products matching every active predicate and
// orders them by q.Sort. The input slice is not modified.
func Filter(products []models.Product, q Query) []models.Product {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if !p.Enabled {
			continue
		}
		if text != "" && !matchesText(p, text) {
			continue
		}
		price := priceOf(p)
		if price < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && price > q.MaxPrice {
			continue
		}
		if len(q.Materials) > 0 && !matchesMaterial(p.Material, q.Materials) {
			continue
		}
		if len(q.Categories) > 0 && !matchesCategory(p.Category, q.Categories) {
			continue
		}
		out = append(out, p)
	}

	Sort(out, q.Sort)
	return out
}

// Sort orders products in place. Ties keep their input order.
func Sort(products []models.Product, order SortOrder) {
	switch order {
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return priceOf(products[i]) < priceOf(products[j])
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return priceOf(products[i]) > priceOf(products[j])
		})
	case SortRating:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	case SortNewest:
		for i, j := 0, len(products)-1; i < j; i, j = i+1, j-1 {
			products[i], products[j] = products[j], products[i]
		}
	}
}

func priceOf(p models.Product) float64 {
	return pricing.Float(pricing.ProductPrice(p))
}

func matchesText(p models.Product, text string) bool {
	return strings.Contains(strings.ToLower(p.Name), text) ||
		strings.Contains(strings.ToLower(p.Description), text) ||
		strings.Contains(strings.ToLower(p.Category), text)
}

func matchesMaterial(material string, selected []string) bool {
	m := strings.ToLower(material)
	for _, s := range selected {
		if s != "" && strings.Contains(m, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func matchesCategory(category string, selected []string) bool {
	for _, s := range selected {
		if strings.EqualFold(category, s) {
			return true
		}
	}
	return false
}
