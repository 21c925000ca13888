package subscriber

import (
	"context"
	"time"
)

// SubscriberRepository persists subscriber mutations. List methods use keyset
// pagination ordered by primary key so batch sweeps stay cursor-stable.
type SubscriberRepository interface {
	GetByID(ctx context.Context, id uint) (*Subscriber, error)
	Update(ctx context.Context, sub *Subscriber) error

	// ListByPlanID pages subscribers currently on the given plan.
	ListByPlanID(ctx context.Context, planID uint, afterID uint, limit int) ([]*Subscriber, error)

	// ListExhaustedCandidates pages metered, unsuspended, plan-holding
	// subscribers whose combined usage has crossed threshold*quota.
	ListExhaustedCandidates(ctx context.Context, threshold float64, afterID uint, limit int) ([]*Subscriber, error)

	// ListActiveWithPlan pages unsuspended, unexpired subscribers that hold a
	// plan, for the drift-correction sweep.
	ListActiveWithPlan(ctx context.Context, now time.Time, afterID uint, limit int) ([]*Subscriber, error)
}

// PlanRepository reads plans; the engine never writes them.
type PlanRepository interface {
	GetByID(ctx context.Context, id uint) (*Plan, error)
	ListUpdatedSince(ctx context.Context, since time.Time) ([]*Plan, error)
}

// SweepCheckpointRepository stores per-scan checkpoints, replacing ambient
// "last checked" state. Get returns the zero time when no checkpoint exists.
type SweepCheckpointRepository interface {
	Get(ctx context.Context, name string) (time.Time, error)
	Advance(ctx context.Context, name string, sweptAt time.Time) error
}

// CycleAuditLogRepository appends cycle mutation records.
type CycleAuditLogRepository interface {
	Create(ctx context.Context, entry *CycleAuditLog) error
}
