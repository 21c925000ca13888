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

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlanMapper
	logger logger.Interface
}

func NewPlanRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscriber.PlanRepository {
	return &PlanRepositoryImpl{
		db:     db,
		mapper: mappers.NewPlanMapper(),
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscriber.Plan, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var model models.PlanModel
	if err := tx.First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map plan model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map plan: %w", err)
	}

	return entity, nil
}

func (r *PlanRepositoryImpl) ListUpdatedSince(ctx context.Context, since time.Time) ([]*subscriber.Plan, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var planModels []*models.PlanModel
	if err := tx.Where("updated_at > ?", since).Order("updated_at ASC").Find(&planModels).Error; err != nil {
		r.logger.Errorw("failed to list updated plans", "since", since, "error", err)
		return nil, fmt.Errorf("failed to list updated plans: %w", err)
	}

	return r.mapper.ToEntities(planModels)
}
