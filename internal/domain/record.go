package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/solutiontech/gic/pkg/apperrors"
)

// Record is the flat form of a customer used by exports and imports. It
// holds the base fields plus the fields of the record's own variant.
type Record map[string]any

// BaseFields are present on every record, in column order.
var BaseFields = []string{"id", "name", "email", "phone", "address", "active", "variant", "created_at", "updated_at"}

var variantFields = map[Variant][]string{
	VariantRegular:   {"credit_limit", "loyalty_points"},
	VariantPremium:   {"advisor_name", "tier", "discount_rate"},
	VariantCorporate: {"tax_id", "legal_name", "industry", "business_contact", "employee_count", "volume_discount_rate"},
}

// AllFields is the union of every variant's columns, used for tabular exports.
func AllFields() []string {
	out := append([]string{}, BaseFields...)
	for _, v := range Variants {
		out = append(out, variantFields[v]...)
	}
	return out
}

// RecordFields lists the columns of one variant.
func RecordFields(v Variant) []string {
	return append(append([]string{}, BaseFields...), variantFields[v]...)
}

// legacyKeys maps the column names of the legacy desktop export to ours.
var legacyKeys = map[string]string{
	"nombre":              "name",
	"telefono":            "phone",
	"direccion":           "address",
	"activo":              "active",
	"tipo_cliente":        "variant",
	"fecha_registro":      "created_at",
	"fecha_actualizacion": "updated_at",
	"limite_credito":      "credit_limit",
	"puntos_fidelidad":    "loyalty_points",
	"asesor_dedicado":     "advisor_name",
	"nivel_premium":       "tier",
	"descuento":           "discount_rate",
	"rut_empresa":         "tax_id",
	"razon_social":        "legal_name",
	"rubro":               "industry",
	"contacto_comercial":  "business_contact",
	"cantidad_empleados":  "employee_count",
	"descuento_volumen":   "volume_discount_rate",
}

// ToRecord flattens c.
func (c *Customer) ToRecord() Record {
	r := Record{
		"id":         c.ID,
		"name":       c.Name,
		"email":      c.Email,
		"phone":      c.Phone,
		"address":    c.Address,
		"active":     c.Active,
		"variant":    string(c.Variant),
		"created_at": c.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	switch {
	case c.Regular != nil:
		r["credit_limit"] = c.Regular.CreditLimit
		r["loyalty_points"] = c.Regular.LoyaltyPoints
	case c.Premium != nil:
		r["advisor_name"] = c.Premium.AdvisorName
		r["tier"] = string(c.Premium.Tier)
		r["discount_rate"] = c.Premium.DiscountRate
	case c.Corporate != nil:
		r["tax_id"] = c.Corporate.TaxID
		r["legal_name"] = c.Corporate.LegalName
		r["industry"] = c.Corporate.Industry
		r["business_contact"] = c.Corporate.BusinessContact
		r["employee_count"] = c.Corporate.EmployeeCount
		r["volume_discount_rate"] = c.Corporate.VolumeDiscountRate
	}
	return r
}

// FromRecord rebuilds a customer from its flat form. Values are assumed to
// have been validated when first written; only types are coerced. Missing
// optional values take the same defaults as Factory.Create.
func FromRecord(in Record) (*Customer, error) {
	r := make(Record, len(in))
	for k, v := range in {
		if alias, ok := legacyKeys[k]; ok {
			k = alias
		}
		r[k] = v
	}

	v, err := ParseVariant(r.str("variant"))
	if err != nil {
		return nil, err
	}

	c := &Customer{
		ID:      r.str("id"),
		Name:    r.str("name"),
		Email:   r.str("email"),
		Phone:   r.str("phone"),
		Address: r.str("address"),
		Active:  true,
		Variant: v,
	}
	if c.Active, err = r.boolean("active", true); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = r.timestamp("created_at"); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = r.timestamp("updated_at"); err != nil {
		return nil, err
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	switch v {
	case VariantRegular:
		p := &RegularProfile{}
		if p.CreditLimit, err = r.float("credit_limit", DefaultCreditLimit); err != nil {
			return nil, err
		}
		if p.CreditLimit == 0 {
			p.CreditLimit = DefaultCreditLimit
		}
		if p.LoyaltyPoints, err = r.integer("loyalty_points", 0); err != nil {
			return nil, err
		}
		c.Regular = p
	case VariantPremium:
		tier, err := ParseTier(r.str("tier"))
		if err != nil {
			return nil, err
		}
		p := &PremiumProfile{Tier: tier, AdvisorName: orDefault(r.str("advisor_name"), DefaultAdvisor)}
		if p.DiscountRate, err = r.float("discount_rate", tier.Rate()); err != nil {
			return nil, err
		}
		c.Premium = p
	case VariantCorporate:
		p := &CorporateProfile{
			TaxID:           r.str("tax_id"),
			LegalName:       orDefault(r.str("legal_name"), c.Name),
			Industry:        orDefault(r.str("industry"), DefaultIndustry),
			BusinessContact: r.str("business_contact"),
		}
		if p.EmployeeCount, err = r.integer("employee_count", 1); err != nil {
			return nil, err
		}
		p.EmployeeCount = max(1, p.EmployeeCount)
		if p.VolumeDiscountRate, err = r.float("volume_discount_rate", VolumeRate(p.EmployeeCount)); err != nil {
			return nil, err
		}
		c.Corporate = p
	}
	return c, nil
}

func (r Record) present(key string) (any, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func (r Record) str(key string) string {
	v, ok := r.present(key)
	if !ok {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

func (r Record) float(key string, def float64) (float64, error) {
	v, ok := r.present(key)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, coerceError(key, v)
		}
		return f, nil
	}
	return 0, coerceError(key, v)
}

func (r Record) integer(key string, def int) (int, error) {
	v, ok := r.present(key)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), nil
		}
	}
	return 0, coerceError(key, v)
}

func (r Record) boolean(key string, def bool) (bool, error) {
	v, ok := r.present(key)
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int:
		return b != 0, nil
	case int64:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "t", "yes", "si", "sí":
			return true, nil
		case "0", "false", "f", "no":
			return false, nil
		}
	}
	return false, coerceError(key, v)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (r Record) timestamp(key string) (time.Time, error) {
	v, ok := r.present(key)
	if !ok {
		return time.Time{}, nil
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), nil
			}
		}
	}
	return time.Time{}, coerceError(key, v)
}

func coerceError(key string, v any) error {
	return apperrors.Invalid(key, apperrors.ErrMalformedRecord, "cannot read %s from %v (%T)", key, v, v)
}
