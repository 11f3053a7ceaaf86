package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jewelpalace/storefront/internal/models"
)

func fixtures() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Royal Gold Diamond Ring", Category: "Rings", Material: "Gold", Price: 45000, Discount: 15, Rating: 4.8, Enabled: true},
		{ID: "2", Name: "Elegant Pearl Necklace", Category: "Necklaces", Material: "Gold", Price: 32000, Discount: 20, Rating: 4.7, Enabled: true},
		{ID: "3", Name: "Diamond Stud Earrings", Category: "Earrings", Material: "Diamond", Price: 28000, Discount: 10, Rating: 4.9, Enabled: true},
		{ID: "4", Name: "Platinum Band", Category: "Rings", Material: "Platinum", Price: 60000, Rating: 4.2, Enabled: true},
		{ID: "5", Name: "Hidden Gold Ring", Category: "Rings", Material: "Rose Gold", Price: 20000, Rating: 5, Enabled: false},
		{ID: "6", Name: "Heavy Gold Ring", Category: "Rings", Material: "gold", Price: 90000, Discount: 10, Rating: 3.9, Enabled: true},
	}
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestFilterEnabledOnly(t *testing.T) {
	got := Filter(fixtures(), Query{})
	assert.Equal(t, []string{"1", "2", "3", "4", "6"}, ids(got))
}

func TestFilterGoldRingsUnder50000(t *testing.T) {
	got := Filter(fixtures(), Query{
		Categories: []string{"Rings"},
		Materials:  []string{"Gold"},
		MaxPrice:   50000,
	})
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestFilterText(t *testing.T) {
	got := Filter(fixtures(), Query{Text: "  DIAMOND "})
	assert.Equal(t, []string{"1", "3"}, ids(got))

	got = Filter(fixtures(), Query{Text: "necklaces"})
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestFilterUsesDiscountedPrice(t *testing.T) {
	// 32000 less 20% is 25600 and 28000 less 10% is 25200
	got := Filter(fixtures(), Query{MinPrice: 25500, MaxPrice: 26000})
	assert.Equal(t, []string{"2"}, ids(got))

	got = Filter(fixtures(), Query{MinPrice: 25000, MaxPrice: 26000})
	assert.Equal(t, []string{"2", "3"}, ids(got))
}

func TestSortOrders(t *testing.T) {
	cases := map[SortOrder][]string{
		SortFeatured:  {"1", "2", "3", "4", "6"},
		SortPriceLow:  {"3", "2", "1", "4", "6"},
		SortPriceHigh: {"6", "4", "1", "2", "3"},
		SortRating:    {"3", "1", "2", "4", "6"},
		SortNewest:    {"6", "4", "3", "2", "1"},
	}
	for order, want := range cases {
		t.Run(string(order), func(t *testing.T) {
			assert.Equal(t, want, ids(Filter(fixtures(), Query{Sort: order})))
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := fixtures()
	Filter(in, Query{Sort: SortNewest})
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids(in))
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortPriceLow, ParseSort("Price-Low"))
	assert.Equal(t, SortFeatured, ParseSort(""))
	assert.Equal(t, SortFeatured, ParseSort("bogus"))
}
