package gormstore

import (
	"strings"
	"time"

	"github.com/solutiontech/gic/internal/domain"
)

// customerRow is the single-table layout of every variant. Columns of other
// variants stay NULL.
type customerRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:120;not null"`
	Email     string    `gorm:"size:254;not null;uniqueIndex"`
	Phone     string    `gorm:"size:32;not null;index"`
	Address   string    `gorm:"size:255;not null"`
	Active    bool      `gorm:"not null;index"`
	Variant   string    `gorm:"size:16;not null;index"`
	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`

	// SearchText holds name, email and phone lowercased in Go. SQLite's
	// LOWER only folds ASCII, so list search matches against this instead.
	SearchText string `gorm:"size:512;not null;default:''"`

	CreditLimit   *float64
	LoyaltyPoints *int

	AdvisorName  *string `gorm:"size:120"`
	Tier         *string `gorm:"size:16"`
	DiscountRate *float64

	TaxID              *string `gorm:"size:16"`
	LegalName          *string `gorm:"size:200"`
	Industry           *string `gorm:"size:120"`
	BusinessContact    *string `gorm:"size:120"`
	EmployeeCount      *int
	VolumeDiscountRate *float64
}

func (customerRow) TableName() string { return "customers" }

// activityRow backs the append-only activity log.
type activityRow struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Action    string    `gorm:"size:32;not null"`
	Entity    string    `gorm:"size:32;not null"`
	EntityID  string    `gorm:"size:36;not null;index"`
	Detail    string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false"`
}

func (activityRow) TableName() string { return "activity_log" }

func searchText(name, email, phone string) string {
	return strings.ToLower(name + "\n" + email + "\n" + phone)
}

func toRow(c *domain.Customer) customerRow {
	row := customerRow{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Active:    c.Active,
		Variant:   string(c.Variant),
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),

		SearchText: searchText(c.Name, c.Email, c.Phone),
	}
	switch {
	case c.Regular != nil:
		row.CreditLimit = &c.Regular.CreditLimit
		row.LoyaltyPoints = &c.Regular.LoyaltyPoints
	case c.Premium != nil:
		tier := string(c.Premium.Tier)
		row.AdvisorName = &c.Premium.AdvisorName
		row.Tier = &tier
		row.DiscountRate = &c.Premium.DiscountRate
	case c.Corporate != nil:
		row.TaxID = &c.Corporate.TaxID
		row.LegalName = &c.Corporate.LegalName
		row.Industry = &c.Corporate.Industry
		row.BusinessContact = &c.Corporate.BusinessContact
		row.EmployeeCount = &c.Corporate.EmployeeCount
		row.VolumeDiscountRate = &c.Corporate.VolumeDiscountRate
	}
	return row
}

func fromRow(row *customerRow) *domain.Customer {
	c := &domain.Customer{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Address:   row.Address,
		Active:    row.Active,
		Variant:   domain.Variant(row.Variant),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	switch c.Variant {
	case domain.VariantRegular:
		c.Regular = &domain.RegularProfile{
			CreditLimit:   deref(row.CreditLimit),
			LoyaltyPoints: deref(row.LoyaltyPoints),
		}
	case domain.VariantPremium:
		c.Premium = &domain.PremiumProfile{
			Tier:         domain.Tier(deref(row.Tier)),
			AdvisorName:  deref(row.AdvisorName),
			DiscountRate: deref(row.DiscountRate),
		}
	case domain.VariantCorporate:
		c.Corporate = &domain.CorporateProfile{
			TaxID:              deref(row.TaxID),
			LegalName:          deref(row.LegalName),
			Industry:           deref(row.Industry),
			BusinessContact:    deref(row.BusinessContact),
			EmployeeCount:      deref(row.EmployeeCount),
			VolumeDiscountRate: deref(row.VolumeDiscountRate),
		}
	}
	return c
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
