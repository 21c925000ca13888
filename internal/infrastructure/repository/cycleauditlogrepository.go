package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"vetiver/internal/domain/subscriber"
	"vetiver/internal/infrastructure/persistence/models"
	"vetiver/internal/shared/db"
	"vetiver/internal/shared/logger"
)

type CycleAuditLogRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewCycleAuditLogRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscriber.CycleAuditLogRepository {
	return &CycleAuditLogRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *CycleAuditLogRepositoryImpl) Create(ctx context.Context, entry *subscriber.CycleAuditLog) error {
	tx := db.GetTxFromContext(ctx, r.db)

	model := &models.CycleAuditLogModel{
		SubscriberID:    entry.SubscriberID,
		Source:          entry.Source,
		Event:           entry.Event,
		ExpiredBefore:   entry.ExpiredBefore,
		ExpiredAfter:    entry.ExpiredAfter,
		NextResetBefore: entry.NextResetBefore,
		NextResetAfter:  entry.NextResetAfter,
		CreatedAt:       entry.CreatedAt,
	}
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create cycle audit log", "subscriber_id", entry.SubscriberID, "error", err)
		return fmt.Errorf("failed to create cycle audit log: %w", err)
	}

	entry.ID = model.ID
	return nil
}
