// Package pricing holds the storefront's money rules. All arithmetic runs on
// decimals and is converted to float64 only at the edges.
package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jewelpalace/storefront/internal/models"
)

var (
	// FreeShippingThreshold is the subtotal from which shipping is free
	FreeShippingThreshold = decimal.NewFromInt(5000)
	// ShippingFee applies below the threshold
	ShippingFee = decimal.NewFromInt(200)
	// TaxRate is applied to the subtotal
	TaxRate = decimal.RequireFromString("0.03")

	hundred = decimal.NewFromInt(100)
)

// Totals is the price breakdown of a cart or order
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// DiscountedPrice is price reduced by a percent discount
func DiscountedPrice(price int64, discountPercent int) decimal.Decimal {
	p := decimal.NewFromInt(price)
	if discountPercent <= 0 {
		return p
	}
	if discountPercent >= 100 {
		return decimal.Zero
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(discountPercent))).Div(hundred)
	return p.Mul(factor)
}

// ProductPrice is the discounted price of a product
func ProductPrice(p models.Product) decimal.Decimal {
	return DiscountedPrice(p.Price, p.Discount)
}

// Subtotal sums price times quantity over the line items
func Subtotal(items []models.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Shipping is free from the threshold upwards
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return ShippingFee
}

// Tax is the rounded tax on subtotal
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(0)
}

// Compute prices a subtotal after an optional coupon reduction. Shipping and
// tax are charged on the reduced subtotal.
func Compute(subtotal, couponDiscount decimal.Decimal) Totals {
	if couponDiscount.GreaterThan(subtotal) {
		couponDiscount = subtotal
	}
	net := subtotal.Sub(couponDiscount)
	shipping := Shipping(net)
	tax := Tax(net)
	return Totals{
		Subtotal: subtotal,
		Discount: couponDiscount,
		Shipping: shipping,
		Tax:      tax,
		Total:    net.Add(shipping).Add(tax),
	}
}

// ForItems prices line items without a coupon
func ForItems(items []models.LineItem) Totals {
	return Compute(Subtotal(items), decimal.Zero)
}

// Float converts a decimal to float64 for JSON
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

var (
	ErrCouponDisabled  = errors.New("coupon is disabled")
	ErrCouponExpired   = errors.New("coupon has expired")
	ErrCouponMinOrder  = errors.New("order total is below the coupon minimum")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// CouponDiscount returns the reduction d grants on subtotal at time now.
// expiryDate is inclusive.
func CouponDiscount(d models.Discount, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !d.Enabled {
		return decimal.Zero, ErrCouponDisabled
	}
	if d.ExpiryDate != "" {
		expiry, err := time.ParseInLocation("2006-01-02", d.ExpiryDate, now.Location())
		if err == nil && now.After(expiry.AddDate(0, 0, 1).Add(-time.Nanosecond)) {
			return decimal.Zero, ErrCouponExpired
		}
	}
	if subtotal.LessThan(decimal.NewFromFloat(d.MinOrder)) {
		return decimal.Zero, ErrCouponMinOrder
	}
	if d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit {
		return decimal.Zero, ErrCouponExhausted
	}

	var off decimal.Decimal
	switch d.Type {
	case models.DiscountPercentage:
		off = subtotal.Mul(decimal.NewFromFloat(d.Value)).Div(hundred).Round(2)
		if d.MaxDiscount > 0 {
			off = decimal.Min(off, decimal.NewFromFloat(d.MaxDiscount))
		}
	default:
		off = decimal.NewFromFloat(d.Value)
	}

	if off.GreaterThan(subtotal) {
		off = subtotal
	}
	if off.IsNegative() {
		off = decimal.Zero
	}
	return off, nil
}
