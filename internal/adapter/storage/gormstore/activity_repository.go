package gormstore

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
)

type ActivityRepository struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewActivityRepository(db *gorm.DB, log *zap.Logger, opts ...Option) ports.ActivityRepository {
	o := buildOptions(opts)
	return &ActivityRepository{
		db:  db,
		log: log,
		now: o.now,
	}
}

func (r *ActivityRepository) Append(ctx context.Context, a *domain.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
	}
	row := activityRow{
		Action:    a.Action,
		Entity:    a.Entity,
		EntityID:  a.EntityID,
		Detail:    a.Detail,
		CreatedAt: a.CreatedAt.UTC(),
	}
	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return translateError(err, "")
	}
	a.ID = row.ID
	return nil
}

func (r *ActivityRepository) ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := InTx(ctx, r.db, func(tx *gorm.DB) ([]activityRow, error) {
		var rows []activityRow
		err := tx.Where("entity_id = ?", entityID).
			Order("created_at desc").Order("id desc").
			Limit(limit).
			Find(&rows).Error
		return rows, err
	})
	if err != nil {
		return nil, translateError(err, "")
	}

	out := make([]domain.Activity, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Activity{
			ID:        row.ID,
			Action:    row.Action,
			Entity:    row.Entity,
			EntityID:  row.EntityID,
			Detail:    row.Detail,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}
