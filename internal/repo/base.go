// Package repo holds the plumbing shared by the gorm-backed repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by repositories that own a single connection.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// FindOne runs q with LIMIT 1 and returns (nil, nil) when nothing matches,
// so callers never branch on gorm.ErrRecordNotFound.
func FindOne[T any](q *gorm.DB) (*T, error) {
	var rows []T
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
