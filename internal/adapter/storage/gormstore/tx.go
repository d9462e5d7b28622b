package gormstore

import (
	"context"

	"gorm.io/gorm"
)

// InTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back when fn fails or panics; the connection goes back to the pool
// on every path.
func InTx[T any](ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var out T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

func inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	_, err := InTx(ctx, db, func(tx *gorm.DB) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}
