package models

import (
	"time"

	"gorm.io/gorm"

	"vetiver/internal/shared/constants"
)

// SubscriberModel represents the database persistence model for subscribers
// This is the anti-corruption layer between domain and database
type SubscriberModel struct {
	ID           uint       `gorm:"primarykey"`
	PlanID       *uint      `gorm:"index:idx_subscriber_plan"`
	ExpiredAt    *time.Time `gorm:"index:idx_expired_at"`
	NextResetAt  *time.Time `gorm:"index:idx_next_reset_at"`
	LastResetAt  *time.Time
	UsedUpload   uint64 `gorm:"not null;default:0"`
	UsedDownload uint64 `gorm:"not null;default:0"`
	TrafficQuota uint64 `gorm:"not null;default:0;comment:0 means unmetered"`
	Suspended    bool   `gorm:"not null;default:false;index:idx_suspended"`
	Version      int    `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (SubscriberModel) TableName() string {
	return constants.TableSubscribers
}

// BeforeCreate hook for GORM
func (s *SubscriberModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
