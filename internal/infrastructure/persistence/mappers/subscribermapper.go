// Package mappers converts between persistence models and domain entities.
package mappers

import (
	"fmt"

	"vetiver/internal/domain/subscriber"
	"vetiver/internal/infrastructure/persistence/models"
)

type SubscriberMapper interface {
	ToEntity(model *models.SubscriberModel) (*subscriber.Subscriber, error)
	ToModel(entity *subscriber.Subscriber) (*models.SubscriberModel, error)
	ToEntities(models []*models.SubscriberModel) ([]*subscriber.Subscriber, error)
}

type SubscriberMapperImpl struct{}

func NewSubscriberMapper() SubscriberMapper {
	return &SubscriberMapperImpl{}
}

func (m *SubscriberMapperImpl) ToEntity(model *models.SubscriberModel) (*subscriber.Subscriber, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := subscriber.ReconstructSubscriber(
		model.ID,
		model.PlanID,
		model.ExpiredAt,
		model.NextResetAt,
		model.LastResetAt,
		model.UsedUpload,
		model.UsedDownload,
		model.TrafficQuota,
		model.Suspended,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscriber entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriberMapperImpl) ToModel(entity *subscriber.Subscriber) (*models.SubscriberModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.SubscriberModel{
		ID:           entity.ID(),
		PlanID:       entity.PlanID(),
		ExpiredAt:    entity.ExpiredAt(),
		NextResetAt:  entity.NextResetAt(),
		LastResetAt:  entity.LastResetAt(),
		UsedUpload:   entity.UsedUpload(),
		UsedDownload: entity.UsedDownload(),
		TrafficQuota: entity.TrafficQuota(),
		Suspended:    entity.Suspended(),
		Version:      entity.Version(),
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}, nil
}

func (m *SubscriberMapperImpl) ToEntities(subscriberModels []*models.SubscriberModel) ([]*subscriber.Subscriber, error) {
	if subscriberModels == nil {
		return nil, nil
	}

	entities := make([]*subscriber.Subscriber, 0, len(subscriberModels))
	for _, model := range subscriberModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
