package domain

import (
	"time"

	"github.com/solutiontech/gic/pkg/apperrors"
)

// AddLoyaltyPoints returns a copy of a Regular customer with n more points.
func (c *Customer) AddLoyaltyPoints(n int, now time.Time) (*Customer, error) {
	if err := c.requireVariant(VariantRegular, "loyalty points"); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, apperrors.Invalid("points", apperrors.ErrNegativeValue, "points must not be negative, got %d", n)
	}
	out := c.Clone()
	out.Regular.LoyaltyPoints += n
	out.UpdatedAt = now
	return out, nil
}

// PromoteTier moves a Premium customer one tier up and resets the discount to
// the new tier's rate. At Diamond it returns an unchanged copy and false.
func (c *Customer) PromoteTier(now time.Time) (*Customer, bool, error) {
	if err := c.requireVariant(VariantPremium, "tier promotion"); err != nil {
		return nil, false, err
	}
	next, ok := c.Premium.Tier.Next()
	out := c.Clone()
	if !ok {
		return out, false, nil
	}
	out.Premium.Tier = next
	out.Premium.DiscountRate = next.Rate()
	out.UpdatedAt = now
	return out, true, nil
}

// UpdateEmployeeCount sets the head count of a Corporate customer (clamped to
// at least 1) and recomputes its volume discount.
func (c *Customer) UpdateEmployeeCount(n int, now time.Time) (*Customer, error) {
	if err := c.requireVariant(VariantCorporate, "employee count"); err != nil {
		return nil, err
	}
	out := c.Clone()
	out.Corporate.EmployeeCount = max(1, n)
	out.Corporate.VolumeDiscountRate = VolumeRate(out.Corporate.EmployeeCount)
	out.UpdatedAt = now
	return out, nil
}

// Activate returns an active copy.
func (c *Customer) Activate(now time.Time) *Customer {
	out := c.Clone()
	out.Active = true
	out.UpdatedAt = now
	return out
}

// Deactivate returns an inactive copy. The record itself is kept.
func (c *Customer) Deactivate(now time.Time) *Customer {
	out := c.Clone()
	out.Active = false
	out.UpdatedAt = now
	return out
}
