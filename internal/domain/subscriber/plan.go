package subscriber

import (
	"fmt"
	"time"

	"vetiver/internal/domain/cycle"
)

type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusInactive PlanStatus = "inactive"
)

// Plan is read-only to the cycle engine except for change detection via
// UpdatedAt. Tags carry the free-text policy labels; they are normalized once
// at the persistence boundary.
type Plan struct {
	id          uint
	name        string
	tags        []string
	resetMethod cycle.ResetMethod // zero value means "use system default"
	status      PlanStatus
	createdAt   time.Time
	updatedAt   time.Time
}

// ReconstructPlan rebuilds a plan from persistence. Tags must already be
// normalized (cycle.NormalizeTags).
func ReconstructPlan(
	id uint,
	name string,
	tags []string,
	resetMethod cycle.ResetMethod,
	status string,
	createdAt, updatedAt time.Time,
) (*Plan, error) {
	if id == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	planStatus := PlanStatus(status)
	if planStatus != PlanStatusActive && planStatus != PlanStatusInactive {
		return nil, fmt.Errorf("invalid plan status: %s", status)
	}
	return &Plan{
		id:          id,
		name:        name,
		tags:        tags,
		resetMethod: resetMethod,
		status:      planStatus,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

func (p *Plan) ID() uint {
	return p.id
}

func (p *Plan) Name() string {
	return p.name
}

func (p *Plan) Tags() []string {
	return p.tags
}

func (p *Plan) ResetMethod() cycle.ResetMethod {
	return p.resetMethod
}

func (p *Plan) Status() PlanStatus {
	return p.status
}

func (p *Plan) IsActive() bool {
	return p.status == PlanStatusActive
}

func (p *Plan) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Plan) UpdatedAt() time.Time {
	return p.updatedAt
}

// PolicySnapshot produces the resolver input view of this plan.
func (p *Plan) PolicySnapshot() *cycle.PlanSnapshot {
	return &cycle.PlanSnapshot{
		ID:          p.id,
		Tags:        p.tags,
		ResetMethod: p.resetMethod,
		UpdatedAt:   p.updatedAt,
	}
}

// CarriesCycleTags reports whether the plan declares either cycle-governing
// tag, so sweeps can skip plans that cannot affect custom schedules.
func (p *Plan) CarriesCycleTags() bool {
	return cycle.HasCyclePolicyTags(p.tags)
}
