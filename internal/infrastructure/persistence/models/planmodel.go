package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"vetiver/internal/shared/constants"
)

// PlanModel represents the database persistence model for plans
// This is the anti-corruption layer between domain and database
type PlanModel struct {
	ID          uint           `gorm:"primarykey"`
	Name        string         `gorm:"not null;size:100"`
	Tags        datatypes.JSON `gorm:"comment:free-form labels, cycle policy tags included"`
	ResetMethod string         `gorm:"size:30"`
	Status      string         `gorm:"not null;size:20;default:active"`
	Version     int            `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time      `gorm:"index:idx_plan_updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return constants.TablePlans
}

// BeforeCreate hook for GORM
func (p *PlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = "active"
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}
