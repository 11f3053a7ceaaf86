package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/store"
)

// DiscountService manages coupon codes
type DiscountService struct {
	store store.Store
	now   func() time.Time
}

// NewDiscountService creates a new discount service
func NewDiscountService(st store.Store) *DiscountService {
	return &DiscountService{store: st, now: time.Now}
}

var discountImmutable = []string{"id", "createdAt", "updatedAt", "usedCount"}

// ListDiscounts returns every coupon, oldest first
func (s *DiscountService) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	discounts, err := listRecords[models.Discount](ctx, s.store, store.KindDiscount)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(discounts, func(i, j int) bool {
		return discounts[i].CreatedAt.Before(discounts[j].CreatedAt)
	})
	return discounts, nil
}

// FindByCode looks a coupon up by its code, ignoring case
func (s *DiscountService) FindByCode(ctx context.Context, code string) (*models.Discount, error) {
	discounts, err := s.ListDiscounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range discounts {
		if strings.EqualFold(discounts[i].Code, strings.TrimSpace(code)) {
			return &discounts[i], nil
		}
	}
	return nil, ErrDiscountNotFound
}

// CreateDiscount stores a new coupon. Codes are upper-cased and unique.
func (s *DiscountService) CreateDiscount(ctx context.Context, attrs map[string]any) (*models.Discount, error) {
	d := models.Discount{Enabled: true}
	if err := mergeAttrs(attrs, &d, discountImmutable...); err != nil {
		return nil, err
	}
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	if err := validateStruct(d); err != nil {
		return nil, err
	}

	if _, err := s.FindByCode(ctx, d.Code); err == nil {
		return nil, ErrDiscountCodeTaken
	} else if !errors.Is(err, ErrDiscountNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	d.ID = newID("disc", now)
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := putRecord(ctx, s.store, store.KindDiscount, d.ID, d); err != nil {
		return nil, err
	}
	zap.L().Info("discount created", zap.String("discountId", d.ID), zap.String("code", d.Code))
	return &d, nil
}

// UpdateDiscount merges the present attributes onto the stored coupon
func (s *DiscountService) UpdateDiscount(ctx context.Context, id string, attrs map[string]any) (*models.Discount, error) {
	existing, err := getRecord[models.Discount](ctx, s.store, store.KindDiscount, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}

	updated := *existing
	if err := mergeAttrs(attrs, &updated, discountImmutable...); err != nil {
		return nil, err
	}
	updated.Code = strings.ToUpper(strings.TrimSpace(updated.Code))
	if err := validateStruct(updated); err != nil {
		return nil, err
	}

	if updated.Code != existing.Code {
		if other, err := s.FindByCode(ctx, updated.Code); err == nil && other.ID != id {
			return nil, ErrDiscountCodeTaken
		} else if err != nil && !errors.Is(err, ErrDiscountNotFound) {
			return nil, err
		}
	}

	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now().UTC()

	if err := putRecord(ctx, s.store, store.KindDiscount, id, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteDiscount removes a coupon. Deleting a missing coupon succeeds.
func (s *DiscountService) DeleteDiscount(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.KindDiscount, id); err != nil {
		return fmt.Errorf("failed to delete discount: %w", err)
	}
	return nil
}
