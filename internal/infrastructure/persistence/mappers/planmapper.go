package mappers

import (
	"encoding/json"
	"fmt"

	"vetiver/internal/domain/cycle"
	"vetiver/internal/domain/subscriber"
	"vetiver/internal/infrastructure/persistence/models"
)

type PlanMapper interface {
	ToEntity(model *models.PlanModel) (*subscriber.Plan, error)
	ToEntities(models []*models.PlanModel) ([]*subscriber.Plan, error)
}

type PlanMapperImpl struct{}

func NewPlanMapper() PlanMapper {
	return &PlanMapperImpl{}
}

func (m *PlanMapperImpl) ToEntity(model *models.PlanModel) (*subscriber.Plan, error) {
	if model == nil {
		return nil, nil
	}

	// Tags are stored as a JSON array but legacy rows may hold a plain
	// comma-separated string; normalization handles both.
	var rawTags any
	if len(model.Tags) > 0 {
		var decoded any
		if err := json.Unmarshal(model.Tags, &decoded); err != nil {
			rawTags = string(model.Tags)
		} else {
			rawTags = decoded
		}
	}
	tags := cycle.NormalizeTags(rawTags)

	// An unknown stored method resolves to the configured default later.
	method, _ := cycle.ParseResetMethod(model.ResetMethod)

	entity, err := subscriber.ReconstructPlan(
		model.ID,
		model.Name,
		tags,
		method,
		model.Status,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan entity: %w", err)
	}

	return entity, nil
}

func (m *PlanMapperImpl) ToEntities(planModels []*models.PlanModel) ([]*subscriber.Plan, error) {
	if planModels == nil {
		return nil, nil
	}

	entities := make([]*subscriber.Plan, 0, len(planModels))
	for _, model := range planModels {
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
