package domain

import (
	"github.com/shopspring/decimal"

	"github.com/solutiontech/gic/pkg/apperrors"
)

const (
	pointsPerPercent = 1000
	maxPointsPercent = 5
)

// DiscountQuote is the result of applying a customer's discount to an amount.
type DiscountQuote struct {
	CustomerID string  `json:"customer_id"`
	Variant    Variant `json:"variant"`
	Amount     float64 `json:"amount"`
	Rate       float64 `json:"rate"`
	Discount   float64 `json:"discount"`
	Total      float64 `json:"total"`
}

// VolumeRate is the Corporate discount for a head count.
func VolumeRate(employees int) float64 {
	switch {
	case employees <= 10:
		return 0.05
	case employees <= 50:
		return 0.10
	case employees <= 200:
		return 0.15
	default:
		return 0.20
	}
}

// DiscountRate is the fraction of an amount the customer saves.
//
// Regular earns 1% per full 1000 loyalty points, capped at 5%. Premium and
// Corporate use the rate stored on their profile.
func (c *Customer) DiscountRate() float64 {
	return c.rate().InexactFloat64()
}

func (c *Customer) rate() decimal.Decimal {
	switch {
	case c.Regular != nil:
		pct := min(c.Regular.LoyaltyPoints/pointsPerPercent, maxPointsPercent)
		return decimal.New(int64(max(pct, 0)), -2)
	case c.Premium != nil:
		return decimal.NewFromFloat(c.Premium.DiscountRate)
	case c.Corporate != nil:
		return decimal.NewFromFloat(c.Corporate.VolumeDiscountRate)
	}
	return decimal.Zero
}

// Discount returns amount * rate rounded to 2 decimals.
func (c *Customer) Discount(amount float64) float64 {
	return decimal.NewFromFloat(amount).Mul(c.rate()).Round(2).InexactFloat64()
}

// Quote prices amount for the customer. Negative amounts are rejected.
func (c *Customer) Quote(amount float64) (DiscountQuote, error) {
	if amount < 0 {
		return DiscountQuote{}, apperrors.Invalid("amount", apperrors.ErrNegativeValue, "amount must not be negative")
	}
	amt := decimal.NewFromFloat(amount)
	disc := amt.Mul(c.rate()).Round(2)
	return DiscountQuote{
		CustomerID: c.ID,
		Variant:    c.Variant,
		Amount:     amount,
		Rate:       c.rate().InexactFloat64(),
		Discount:   disc.InexactFloat64(),
		Total:      amt.Sub(disc).Round(2).InexactFloat64(),
	}, nil
}
