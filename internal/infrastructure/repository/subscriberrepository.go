package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"vetiver/internal/domain/subscriber"
	"vetiver/internal/infrastructure/persistence/mappers"
	"vetiver/internal/infrastructure/persistence/models"
	"vetiver/internal/shared/db"
	"vetiver/internal/shared/logger"
)

type SubscriberRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriberMapper
	logger logger.Interface
}

func NewSubscriberRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscriber.SubscriberRepository {
	return &SubscriberRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriberMapper(),
		logger: logger,
	}
}

func (r *SubscriberRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscriber.Subscriber, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var model models.SubscriberModel
	if err := tx.First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscriber by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscriber model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map subscriber: %w", err)
	}

	return entity, nil
}

func (r *SubscriberRepositoryImpl) Update(ctx context.Context, sub *subscriber.Subscriber) error {
	model, err := r.mapper.ToModel(sub)
	if err != nil {
		r.logger.Errorw("failed to map subscriber entity to model", "id", sub.ID(), "error", err)
		return fmt.Errorf("failed to map subscriber entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(model).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"plan_id":       model.PlanID,
			"expired_at":    model.ExpiredAt,
			"next_reset_at": model.NextResetAt,
			"last_reset_at": model.LastResetAt,
			"used_upload":   model.UsedUpload,
			"used_download": model.UsedDownload,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update subscriber", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscriber: %w", result.Error)
	}

	// Note: RowsAffected may be 0 when updated values are identical to existing values.

	return nil
}

func (r *SubscriberRepositoryImpl) ListByPlanID(ctx context.Context, planID uint, afterID uint, limit int) ([]*subscriber.Subscriber, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var subscriberModels []*models.SubscriberModel
	err := tx.Scopes(db.AfterID(afterID, limit)).
		Where("plan_id = ?", planID).
		Find(&subscriberModels).Error
	if err != nil {
		r.logger.Errorw("failed to list subscribers by plan", "plan_id", planID, "error", err)
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	return r.mapper.ToEntities(subscriberModels)
}

func (r *SubscriberRepositoryImpl) ListExhaustedCandidates(ctx context.Context, threshold float64, afterID uint, limit int) ([]*subscriber.Subscriber, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var subscriberModels []*models.SubscriberModel
	err := tx.Scopes(db.AfterID(afterID, limit)).
		Where("suspended = ?", false).
		Where("plan_id IS NOT NULL").
		Where("traffic_quota > 0").
		Where("(used_upload + used_download) >= traffic_quota * ?", threshold).
		Find(&subscriberModels).Error
	if err != nil {
		r.logger.Errorw("failed to list exhausted subscribers", "error", err)
		return nil, fmt.Errorf("failed to list exhausted subscribers: %w", err)
	}

	return r.mapper.ToEntities(subscriberModels)
}

func (r *SubscriberRepositoryImpl) ListActiveWithPlan(ctx context.Context, now time.Time, afterID uint, limit int) ([]*subscriber.Subscriber, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var subscriberModels []*models.SubscriberModel
	err := tx.Scopes(db.AfterID(afterID, limit)).
		Where("suspended = ?", false).
		Where("plan_id IS NOT NULL").
		Where("expired_at IS NULL OR expired_at > ?", now).
		Find(&subscriberModels).Error
	if err != nil {
		r.logger.Errorw("failed to list active subscribers", "error", err)
		return nil, fmt.Errorf("failed to list active subscribers: %w", err)
	}

	return r.mapper.ToEntities(subscriberModels)
}
