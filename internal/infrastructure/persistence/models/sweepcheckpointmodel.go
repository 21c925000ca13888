package models

import (
	"time"

	"vetiver/internal/shared/constants"
)

// SweepCheckpointModel persists per-scan sweep checkpoints, one row per
// named scan.
type SweepCheckpointModel struct {
	ID        uint      `gorm:"primarykey"`
	Name      string    `gorm:"uniqueIndex;not null;size:100"`
	SweptAt   time.Time `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (SweepCheckpointModel) TableName() string {
	return constants.TableSweepCheckpoints
}
