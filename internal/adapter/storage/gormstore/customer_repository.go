package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
	"github.com/solutiontech/gic/pkg/apperrors"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to stamp updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type CustomerRepository struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewCustomerRepository(db *gorm.DB, log *zap.Logger, opts ...Option) ports.CustomerRepository {
	o := buildOptions(opts)
	return &CustomerRepository{
		db:  db,
		log: log,
		now: o.now,
	}
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	row := toRow(c)
	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, translateError(err, c.Email)
	}
	r.log.Debug("Customer inserted", zap.String("id", c.ID), zap.String("variant", string(c.Variant)))
	return c, nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	row, err := InTx(ctx, r.db, func(tx *gorm.DB) (*customerRow, error) {
		var row customerRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &row, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperrors.NotFoundError{Entity: "customer", ID: id}
		}
		return nil, translateError(err, "")
	}
	return fromRow(row), nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	row, err := InTx(ctx, r.db, func(tx *gorm.DB) (*customerRow, error) {
		var row customerRow
		if err := tx.First(&row, "email = ?", email).Error; err != nil {
			return nil, err
		}
		return &row, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err, email)
	}
	return fromRow(row), nil
}

func (r *CustomerRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Customer, error) {
	rows, err := InTx(ctx, r.db, func(tx *gorm.DB) ([]customerRow, error) {
		q := tx.Model(&customerRow{})
		if filter.ActiveOnly {
			q = q.Where("active = ?", true)
		}
		if filter.Variant != "" {
			q = q.Where("variant = ?", string(filter.Variant))
		}
		if term := strings.TrimSpace(filter.Search); term != "" {
			pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
			q = q.Where(`search_text LIKE ? ESCAPE '\'`, pattern)
		}

		var rows []customerRow
		err := q.Order("created_at desc").Order("id").Find(&rows).Error
		return rows, err
	})
	if err != nil {
		return nil, translateError(err, "")
	}

	out := make([]*domain.Customer, 0, len(rows))
	for i := range rows {
		out = append(out, fromRow(&rows[i]))
	}
	return out, nil
}

// Update replaces every mutable column of the record. id, variant and
// created_at are never written, and a record stored under another variant is
// left untouched.
func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	out := c.Clone()
	out.UpdatedAt = r.now()
	row := toRow(out)

	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Model(&customerRow{}).
			Where("id = ? AND variant = ?", row.ID, row.Variant).
			Select("*").
			Omit("id", "variant", "created_at").
			Updates(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var stored []string
		if err := tx.Model(&customerRow{}).Where("id = ?", row.ID).Pluck("variant", &stored).Error; err != nil {
			return err
		}
		if len(stored) == 0 {
			return &apperrors.NotFoundError{Entity: "customer", ID: c.ID}
		}
		return apperrors.Invalid("variant", apperrors.ErrVariantMismatch,
			"customer %s is %s, not %s", c.ID, stored[0], row.Variant)
	})
	if err != nil {
		return nil, translateError(err, c.Email)
	}
	return out, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&customerRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &apperrors.NotFoundError{Entity: "customer", ID: id}
		}
		return nil
	})
	return translateError(err, "")
}

func (r *CustomerRepository) Deactivate(ctx context.Context, id string) error {
	return r.setActive(ctx, id, false)
}

func (r *CustomerRepository) Activate(ctx context.Context, id string) error {
	return r.setActive(ctx, id, true)
}

func (r *CustomerRepository) setActive(ctx context.Context, id string, active bool) error {
	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Model(&customerRow{}).
			Where("id = ?", id).
			Updates(map[string]any{"active": active, "updated_at": r.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &apperrors.NotFoundError{Entity: "customer", ID: id}
		}
		return nil
	})
	return translateError(err, "")
}

func (r *CustomerRepository) Count(ctx context.Context, variant domain.Variant) (int64, error) {
	n, err := InTx(ctx, r.db, func(tx *gorm.DB) (int64, error) {
		var n int64
		q := tx.Model(&customerRow{})
		if variant != "" {
			q = q.Where("variant = ?", string(variant))
		}
		err := q.Count(&n).Error
		return n, err
	})
	return n, translateError(err, "")
}

func (r *CustomerRepository) CountActive(ctx context.Context) (int64, error) {
	n, err := InTx(ctx, r.db, func(tx *gorm.DB) (int64, error) {
		var n int64
		err := tx.Model(&customerRow{}).Where("active = ?", true).Count(&n).Error
		return n, err
	})
	return n, translateError(err, "")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
