package models

import (
	"time"

	"vetiver/internal/shared/constants"
)

// CycleAuditLogModel persists the append-only audit trail of cycle field
// mutations. Rows are never updated or deleted by the application.
type CycleAuditLogModel struct {
	ID              uint   `gorm:"primarykey"`
	SubscriberID    uint   `gorm:"not null;index:idx_audit_subscriber"`
	Source          string `gorm:"not null;size:20;index:idx_audit_source"`
	Event           string `gorm:"not null;size:50"`
	ExpiredBefore   *time.Time
	ExpiredAfter    *time.Time
	NextResetBefore *time.Time
	NextResetAfter  *time.Time
	CreatedAt       time.Time `gorm:"index:idx_audit_created"`
}

// TableName specifies the table name for GORM
func (CycleAuditLogModel) TableName() string {
	return constants.TableCycleAuditLogs
}
