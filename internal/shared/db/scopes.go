package db

import (
	"gorm.io/gorm"
)

// AfterID is a GORM scope implementing keyset pagination ordered by primary
// key. Batch sweeps use it so a failed page never forces a rescan of
// already-processed pages.
func AfterID(cursor uint, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id > ?", cursor).Order("id ASC").Limit(limit)
	}
}
