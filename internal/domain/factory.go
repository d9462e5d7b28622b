package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solutiontech/gic/pkg/apperrors"
	"github.com/solutiontech/gic/pkg/validate"
)

// Input carries the raw fields of a new customer. Pointer fields are optional;
// empty strings count as absent.
type Input struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Phone   string `json:"phone" form:"phone"`
	Address string `json:"address" form:"address"`
	Active  *bool  `json:"active,omitempty" form:"active"`

	CreditLimit   *float64 `json:"credit_limit,omitempty" form:"credit_limit"`
	LoyaltyPoints *int     `json:"loyalty_points,omitempty" form:"loyalty_points"`

	Tier         string   `json:"tier,omitempty" form:"tier"`
	AdvisorName  string   `json:"advisor_name,omitempty" form:"advisor_name"`
	DiscountRate *float64 `json:"discount_rate,omitempty" form:"discount_rate"`

	TaxID              string   `json:"tax_id,omitempty" form:"tax_id"`
	LegalName          string   `json:"legal_name,omitempty" form:"legal_name"`
	Industry           string   `json:"industry,omitempty" form:"industry"`
	BusinessContact    string   `json:"business_contact,omitempty" form:"business_contact"`
	EmployeeCount      *int     `json:"employee_count,omitempty" form:"employee_count"`
	VolumeDiscountRate *float64 `json:"volume_discount_rate,omitempty" form:"volume_discount_rate"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`

	CreditLimit *float64 `json:"credit_limit,omitempty"`

	AdvisorName *string `json:"advisor_name,omitempty"`

	LegalName       *string `json:"legal_name,omitempty"`
	Industry        *string `json:"industry,omitempty"`
	BusinessContact *string `json:"business_contact,omitempty"`
}

// patchKeys are the JSON keys a Patch accepts. Variant, active state,
// loyalty points, tier, tax id and employee count change through their own
// operations.
var patchKeys = []string{
	"name", "email", "phone", "address",
	"credit_limit",
	"advisor_name",
	"legal_name", "industry", "business_contact",
}

// DecodePatch parses a JSON partial update. Keys outside the patchable set
// are rejected instead of dropped.
func DecodePatch(data []byte) (Patch, error) {
	var p Patch
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return p, fmt.Errorf("%w: update body: %v", apperrors.ErrMalformedRecord, err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !slices.Contains(patchKeys, k) {
			return p, apperrors.Invalid(k, apperrors.ErrFieldNotApplicable, "field %q cannot be changed by update", k)
		}
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: update body: %v", apperrors.ErrMalformedRecord, err)
	}
	return p, nil
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Factory builds validated customers. The zero value is usable.
type Factory struct {
	PhoneRegion string
	Now         func() time.Time
	NewID       func() string
}

// NewFactory returns a factory validating phones for region.
func NewFactory(region string) *Factory {
	return &Factory{PhoneRegion: region}
}

func (f *Factory) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now().UTC()
}

func (f *Factory) newID() string {
	if f.NewID != nil {
		return f.NewID()
	}
	return uuid.NewString()
}

// Create validates in and builds a customer of the named variant.
func (f *Factory) Create(variant string, in Input) (*Customer, error) {
	v, err := ParseVariant(variant)
	if err != nil {
		return nil, err
	}
	if err := checkApplicable(v, in); err != nil {
		return nil, err
	}

	c := &Customer{
		ID:      f.newID(),
		Active:  true,
		Variant: v,
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if err := f.setContact(c, in.Name, in.Email, in.Phone, in.Address); err != nil {
		return nil, err
	}

	switch v {
	case VariantRegular:
		c.Regular, err = newRegular(in)
	case VariantPremium:
		c.Premium, err = newPremium(in)
	case VariantCorporate:
		c.Corporate, err = newCorporate(in, c.Name)
	}
	if err != nil {
		return nil, err
	}

	now := f.now()
	c.CreatedAt, c.UpdatedAt = now, now
	return c, nil
}

// Apply validates p against c and returns the updated copy. c is never
// modified, so a failing patch leaves no partial change behind.
func (f *Factory) Apply(c *Customer, p Patch) (*Customer, error) {
	if err := checkPatchApplicable(c.Variant, p); err != nil {
		return nil, err
	}

	out := c.Clone()
	name, email, phone, address := out.Name, out.Email, out.Phone, out.Address
	if p.Name != nil {
		name = *p.Name
	}
	if p.Email != nil {
		email = *p.Email
	}
	if p.Phone != nil {
		phone = *p.Phone
	}
	if p.Address != nil {
		address = *p.Address
	}
	if err := f.setContact(out, name, email, phone, address); err != nil {
		return nil, err
	}

	switch out.Variant {
	case VariantRegular:
		if p.CreditLimit != nil {
			if *p.CreditLimit < 0 {
				return nil, apperrors.Invalid("credit_limit", apperrors.ErrNegativeValue, "credit limit must not be negative")
			}
			out.Regular.CreditLimit = *p.CreditLimit
		}
	case VariantPremium:
		if p.AdvisorName != nil {
			out.Premium.AdvisorName = orDefault(*p.AdvisorName, DefaultAdvisor)
		}
	case VariantCorporate:
		if p.LegalName != nil {
			out.Corporate.LegalName = orDefault(*p.LegalName, out.Name)
		}
		if p.Industry != nil {
			out.Corporate.Industry = orDefault(*p.Industry, DefaultIndustry)
		}
		if p.BusinessContact != nil {
			out.Corporate.BusinessContact = strings.TrimSpace(*p.BusinessContact)
		}
	}

	out.UpdatedAt = f.now()
	return out, nil
}

// Normalize re-validates a record read from an external file. Contact fields
// and the tax ID are rewritten in canonical form, rates are range-checked,
// and a missing id or creation time is filled in.
func (f *Factory) Normalize(c *Customer) (*Customer, error) {
	if err := c.checkTag(); err != nil {
		return nil, err
	}
	out := c.Clone()
	if err := f.setContact(out, c.Name, c.Email, c.Phone, c.Address); err != nil {
		return nil, err
	}

	var err error
	switch out.Variant {
	case VariantRegular:
		if out.Regular.CreditLimit < 0 {
			return nil, apperrors.Invalid("credit_limit", apperrors.ErrNegativeValue, "credit limit must not be negative")
		}
		if out.Regular.LoyaltyPoints < 0 {
			return nil, apperrors.Invalid("loyalty_points", apperrors.ErrNegativeValue, "loyalty points must not be negative")
		}
	case VariantPremium:
		if out.Premium.DiscountRate, err = validate.Rate("discount_rate", out.Premium.DiscountRate); err != nil {
			return nil, err
		}
	case VariantCorporate:
		if out.Corporate.TaxID, err = validate.TaxID(out.Corporate.TaxID); err != nil {
			return nil, err
		}
		if out.Corporate.VolumeDiscountRate, err = validate.Rate("volume_discount_rate", out.Corporate.VolumeDiscountRate); err != nil {
			return nil, err
		}
	}

	if out.ID == "" {
		out.ID = f.newID()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = f.now()
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = out.CreatedAt
	}
	return out, nil
}

func (f *Factory) setContact(c *Customer, name, email, phone, address string) error {
	var err error
	if c.Name, err = validate.Name(name); err != nil {
		return err
	}
	if c.Email, err = validate.Email(email); err != nil {
		return err
	}
	if c.Phone, err = validate.Phone(phone, f.PhoneRegion); err != nil {
		return err
	}
	if c.Address, err = validate.Address(address); err != nil {
		return err
	}
	return nil
}

func newRegular(in Input) (*RegularProfile, error) {
	p := &RegularProfile{CreditLimit: DefaultCreditLimit}
	if in.CreditLimit != nil && *in.CreditLimit != 0 {
		if *in.CreditLimit < 0 {
			return nil, apperrors.Invalid("credit_limit", apperrors.ErrNegativeValue, "credit limit must not be negative")
		}
		p.CreditLimit = *in.CreditLimit
	}
	if in.LoyaltyPoints != nil {
		if *in.LoyaltyPoints < 0 {
			return nil, apperrors.Invalid("loyalty_points", apperrors.ErrNegativeValue, "loyalty points must not be negative")
		}
		p.LoyaltyPoints = *in.LoyaltyPoints
	}
	return p, nil
}

func newPremium(in Input) (*PremiumProfile, error) {
	tier, err := ParseTier(in.Tier)
	if err != nil {
		return nil, err
	}
	p := &PremiumProfile{
		Tier:         tier,
		AdvisorName:  orDefault(in.AdvisorName, DefaultAdvisor),
		DiscountRate: tier.Rate(),
	}
	if in.DiscountRate != nil {
		if p.DiscountRate, err = validate.Rate("discount_rate", *in.DiscountRate); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func newCorporate(in Input, name string) (*CorporateProfile, error) {
	taxID, err := validate.TaxID(in.TaxID)
	if err != nil {
		return nil, err
	}
	employees := 1
	if in.EmployeeCount != nil {
		employees = max(1, *in.EmployeeCount)
	}
	p := &CorporateProfile{
		TaxID:              taxID,
		LegalName:          orDefault(in.LegalName, name),
		Industry:           orDefault(in.Industry, DefaultIndustry),
		BusinessContact:    strings.TrimSpace(in.BusinessContact),
		EmployeeCount:      employees,
		VolumeDiscountRate: VolumeRate(employees),
	}
	if in.VolumeDiscountRate != nil {
		if p.VolumeDiscountRate, err = validate.Rate("volume_discount_rate", *in.VolumeDiscountRate); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func checkApplicable(v Variant, in Input) error {
	var stray string
	switch v {
	case VariantRegular:
		stray = firstSet(map[string]bool{
			"tier": in.Tier != "", "advisor_name": in.AdvisorName != "", "discount_rate": in.DiscountRate != nil,
			"tax_id": in.TaxID != "", "legal_name": in.LegalName != "", "industry": in.Industry != "",
			"business_contact": in.BusinessContact != "", "employee_count": in.EmployeeCount != nil,
			"volume_discount_rate": in.VolumeDiscountRate != nil,
		})
	case VariantPremium:
		stray = firstSet(map[string]bool{
			"credit_limit": in.CreditLimit != nil, "loyalty_points": in.LoyaltyPoints != nil,
			"tax_id": in.TaxID != "", "legal_name": in.LegalName != "", "industry": in.Industry != "",
			"business_contact": in.BusinessContact != "", "employee_count": in.EmployeeCount != nil,
			"volume_discount_rate": in.VolumeDiscountRate != nil,
		})
	case VariantCorporate:
		stray = firstSet(map[string]bool{
			"credit_limit": in.CreditLimit != nil, "loyalty_points": in.LoyaltyPoints != nil,
			"tier": in.Tier != "", "advisor_name": in.AdvisorName != "", "discount_rate": in.DiscountRate != nil,
		})
	}
	if stray != "" {
		return apperrors.Invalid(stray, apperrors.ErrFieldNotApplicable, "%s does not apply to %s customers", stray, v)
	}
	return nil
}

func checkPatchApplicable(v Variant, p Patch) error {
	var stray string
	switch v {
	case VariantRegular:
		stray = firstSet(map[string]bool{
			"advisor_name": p.AdvisorName != nil, "legal_name": p.LegalName != nil,
			"industry": p.Industry != nil, "business_contact": p.BusinessContact != nil,
		})
	case VariantPremium:
		stray = firstSet(map[string]bool{
			"credit_limit": p.CreditLimit != nil, "legal_name": p.LegalName != nil,
			"industry": p.Industry != nil, "business_contact": p.BusinessContact != nil,
		})
	case VariantCorporate:
		stray = firstSet(map[string]bool{
			"credit_limit": p.CreditLimit != nil, "advisor_name": p.AdvisorName != nil,
		})
	}
	if stray != "" {
		return apperrors.Invalid(stray, apperrors.ErrFieldNotApplicable, "%s does not apply to %s customers", stray, v)
	}
	return nil
}

// firstSet returns the alphabetically first key whose value is true, so the
// reported field is stable.
func firstSet(fields map[string]bool) string {
	first := ""
	for k, set := range fields {
		if set && (first == "" || k < first) {
			first = k
		}
	}
	return first
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
