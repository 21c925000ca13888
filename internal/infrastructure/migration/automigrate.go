package migration

import (
	"vetiver/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.SubscriberModel{},
		&models.PlanModel{},
		&models.SweepCheckpointModel{},
		&models.CycleAuditLogModel{},
	}
}
