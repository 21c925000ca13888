package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vetiver/internal/domain/subscriber"
	"vetiver/internal/infrastructure/persistence/models"
	"vetiver/internal/shared/db"
	"vetiver/internal/shared/logger"
)

type SweepCheckpointRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSweepCheckpointRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscriber.SweepCheckpointRepository {
	return &SweepCheckpointRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Get returns the zero time when no checkpoint row exists yet, which makes a
// first sweep cover all history.
func (r *SweepCheckpointRepositoryImpl) Get(ctx context.Context, name string) (time.Time, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var model models.SweepCheckpointModel
	if err := tx.Where("name = ?", name).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return time.Time{}, nil
		}
		r.logger.Errorw("failed to get sweep checkpoint", "name", name, "error", err)
		return time.Time{}, fmt.Errorf("failed to get sweep checkpoint: %w", err)
	}

	return model.SweptAt.UTC(), nil
}

func (r *SweepCheckpointRepositoryImpl) Advance(ctx context.Context, name string, sweptAt time.Time) error {
	tx := db.GetTxFromContext(ctx, r.db)

	model := models.SweepCheckpointModel{
		Name:    name,
		SweptAt: sweptAt,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"swept_at", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		r.logger.Errorw("failed to advance sweep checkpoint", "name", name, "error", err)
		return fmt.Errorf("failed to advance sweep checkpoint: %w", err)
	}

	return nil
}
