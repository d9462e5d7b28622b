package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/solutiontech/gic/pkg/apperrors"
)

// Variant is the fixed kind of a customer record.
type Variant string

const (
	VariantRegular   Variant = "Regular"
	VariantPremium   Variant = "Premium"
	VariantCorporate Variant = "Corporate"
)

// Variants lists every variant in display order.
var Variants = []Variant{VariantRegular, VariantPremium, VariantCorporate}

// ParseVariant is case-insensitive and accepts "Corporativo", the name used by
// records exported from the legacy desktop system.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regular":
		return VariantRegular, nil
	case "premium":
		return VariantPremium, nil
	case "corporate", "corporativo":
		return VariantCorporate, nil
	}
	return "", apperrors.Invalid("variant", apperrors.ErrInvalidVariant,
		"unknown customer variant %q (expected Regular, Premium or Corporate)", s)
}

// Tier is the level of a Premium customer.
type Tier string

const (
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
	TierDiamond  Tier = "Diamond"
)

var tierOrder = []Tier{TierGold, TierPlatinum, TierDiamond}

// ParseTier is case-insensitive; an empty string yields Gold.
func ParseTier(s string) (Tier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TierGold, nil
	}
	for _, t := range tierOrder {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", apperrors.Invalid("tier", apperrors.ErrInvalidTier,
		"invalid premium tier %q (expected Gold, Platinum or Diamond)", s)
}

// Next returns the tier above t. ok is false at the top tier.
func (t Tier) Next() (next Tier, ok bool) {
	for i, cur := range tierOrder {
		if cur == t && i < len(tierOrder)-1 {
			return tierOrder[i+1], true
		}
	}
	return t, false
}

// Rate is the flat discount of the tier.
func (t Tier) Rate() float64 {
	switch t {
	case TierPlatinum:
		return 0.15
	case TierDiamond:
		return 0.20
	default:
		return 0.10
	}
}

const (
	DefaultCreditLimit = 500000
	DefaultAdvisor     = "Unassigned"
	DefaultIndustry    = "Unspecified"
)

// RegularProfile holds the attributes of a Regular customer.
type RegularProfile struct {
	CreditLimit   float64 `json:"credit_limit"`
	LoyaltyPoints int     `json:"loyalty_points"`
}

// PremiumProfile holds the attributes of a Premium customer.
type PremiumProfile struct {
	Tier         Tier    `json:"tier"`
	AdvisorName  string  `json:"advisor_name"`
	DiscountRate float64 `json:"discount_rate"`
}

// CorporateProfile holds the attributes of a Corporate customer.
type CorporateProfile struct {
	TaxID              string  `json:"tax_id"`
	LegalName          string  `json:"legal_name"`
	Industry           string  `json:"industry"`
	BusinessContact    string  `json:"business_contact"`
	EmployeeCount      int     `json:"employee_count"`
	VolumeDiscountRate float64 `json:"volume_discount_rate"`
}

// Customer is a tagged union: exactly one profile is set and it matches
// Variant. Values are never mutated in place; every behavior returns a copy.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	Variant   Variant   `json:"variant"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Regular   *RegularProfile   `json:"regular,omitempty"`
	Premium   *PremiumProfile   `json:"premium,omitempty"`
	Corporate *CorporateProfile `json:"corporate,omitempty"`
}

// Clone returns a deep copy.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	out := *c
	if c.Regular != nil {
		p := *c.Regular
		out.Regular = &p
	}
	if c.Premium != nil {
		p := *c.Premium
		out.Premium = &p
	}
	if c.Corporate != nil {
		p := *c.Corporate
		out.Corporate = &p
	}
	return &out
}

// Equal reports whether both records carry the same email. No other field
// takes part: two customers with different names but the same address
// compare equal. Kept for compatibility with the de-duplication rules of
// imported data.
func (c *Customer) Equal(other *Customer) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Email == other.Email
}

func (c *Customer) String() string {
	state := "Active"
	if !c.Active {
		state = "Inactive"
	}
	base := fmt.Sprintf("[%s] %s | %s | %s | %s", c.Variant, c.Name, c.Email, c.Phone, state)

	switch {
	case c.Regular != nil:
		return fmt.Sprintf("%s | Points: %d", base, c.Regular.LoyaltyPoints)
	case c.Premium != nil:
		return fmt.Sprintf("%s | %s | Discount: %.0f%% | Advisor: %s",
			base, c.Premium.Tier, c.Premium.DiscountRate*100, c.Premium.AdvisorName)
	case c.Corporate != nil:
		return fmt.Sprintf("%s | %s | Tax ID: %s | Employees: %d | Discount: %.0f%%",
			base, c.Corporate.LegalName, c.Corporate.TaxID, c.Corporate.EmployeeCount,
			c.Corporate.VolumeDiscountRate*100)
	}
	return base
}

// checkTag verifies the union invariant.
func (c *Customer) checkTag() error {
	ok := false
	switch c.Variant {
	case VariantRegular:
		ok = c.Regular != nil && c.Premium == nil && c.Corporate == nil
	case VariantPremium:
		ok = c.Premium != nil && c.Regular == nil && c.Corporate == nil
	case VariantCorporate:
		ok = c.Corporate != nil && c.Regular == nil && c.Premium == nil
	}
	if !ok {
		return apperrors.Invalid("variant", apperrors.ErrInvalidVariant,
			"customer %s has no %s profile", c.ID, c.Variant)
	}
	return nil
}

func (c *Customer) requireVariant(v Variant, op string) error {
	if c.Variant != v {
		return apperrors.Invalid("variant", apperrors.ErrVariantMismatch,
			"%s is only available for %s customers, got %s", op, v, c.Variant)
	}
	return nil
}
