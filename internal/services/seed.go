package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/models"
)

// Demo accounts created by SeedDemoData
const (
	DemoAdminEmail    = "admin@jewelpalace.com"
	DemoAdminPassword = "admin123"
	DemoUserEmail     = "user@jewelpalace.com"
	DemoUserPassword  = "user123"
)

const unsplash = "https://images.unsplash.com/"
const imageParams = "?auto=format&fit=crop&q=80&w=1000"

// DemoProducts is the starter catalog
var DemoProducts = []models.Product{
	{
		ID:          "prod_demo_1",
		Name:        "Royal Gold Diamond Ring",
		Category:    "Rings",
		Price:       45000,
		Discount:    15,
		Weight:      "5.2g",
		Material:    "Gold",
		Size:        "Adjustable",
		Description: "Exquisite 22K gold ring with precious diamonds. Perfect for special occasions.",
		Image:       unsplash + "photo-1605100804763-247f67b3557e" + imageParams,
		Rating:      4.8,
		Stock:       12,
		Enabled:     true,
	},
	{
		ID:          "prod_demo_2",
		Name:        "Elegant Pearl Necklace",
		Category:    "Necklaces",
		Price:       32000,
		Discount:    20,
		Weight:      "8.5g",
		Material:    "Gold",
		Size:        "Standard",
		Description: "Beautiful gold necklace adorned with natural pearls. A timeless classic.",
		Image:       unsplash + "photo-1599643478518-17488fbbcd75" + imageParams,
		Rating:      4.7,
		Stock:       8,
		Enabled:     true,
	},
	{
		ID:          "prod_demo_3",
		Name:        "Diamond Stud Earrings",
		Category:    "Earrings",
		Price:       28000,
		Discount:    10,
		Weight:      "3.2g",
		Material:    "Diamond",
		Size:        "Small",
		Description: "Sparkling diamond earrings that add elegance to any outfit.",
		Image:       unsplash + "photo-1535632066927-ab7c9ab60908" + imageParams,
		Rating:      4.9,
		Stock:       15,
		Enabled:     true,
	},
	{
		ID:          "prod_demo_4",
		Name:        "Traditional Gold Bangles Set",
		Category:    "Bangles",
		Price:       55000,
		Discount:    25,
		Weight:      "12.5g",
		Material:    "Gold",
		Size:        "2.4",
		Description: "Set of 4 traditional 22K gold bangles with intricate designs.",
		Image:       unsplash + "photo-1611591437281-460bfbe1220a" + imageParams,
		Rating:      4.6,
		Stock:       5,
		Enabled:     true,
	},
}

// SeedResult reports what SeedDemoData wrote
type SeedResult struct {
	ProductsCreated int
	AdminEmail      string
	UserEmail       string
}

// SeedDemoData upserts the demo catalog and creates the demo accounts that
// do not exist yet
func SeedDemoData(ctx context.Context, products *ProductService, users *UserService) (*SeedResult, error) {
	base := products.now().UTC()
	for i, p := range DemoProducts {
		// spaced a millisecond apart so the catalog keeps this order
		stamp := base.Add(time.Duration(i) * time.Millisecond)
		p.CreatedAt = stamp
		p.UpdatedAt = stamp
		if err := products.SaveProduct(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}

	if _, err := users.EnsureUser(ctx, models.RegisterRequest{
		Email: DemoAdminEmail, Password: DemoAdminPassword, Name: "Admin User",
	}, true); err != nil {
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}
	if _, err := users.EnsureUser(ctx, models.RegisterRequest{
		Email: DemoUserEmail, Password: DemoUserPassword, Name: "Demo User",
	}, false); err != nil {
		return nil, fmt.Errorf("failed to seed demo account: %w", err)
	}

	zap.L().Info("demo data seeded", zap.Int("products", len(DemoProducts)))
	return &SeedResult{
		ProductsCreated: len(DemoProducts),
		AdminEmail:      DemoAdminEmail,
		UserEmail:       DemoUserEmail,
	}, nil
}

// SeedIfEmpty seeds the demo data when the catalog has no products
func SeedIfEmpty(ctx context.Context, products *ProductService, users *UserService) (bool, error) {
	existing, err := products.ListProducts(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if _, err := SeedDemoData(ctx, products, users); err != nil {
		return false, err
	}
	return true, nil
}
