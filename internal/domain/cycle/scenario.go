package cycle

import "time"

// OrderSnapshot captures subscriber state immediately before an order is
// applied. The caller constructs it, passes it into the order handler, and
// lets it go out of scope afterwards; there is no shared snapshot registry.
type OrderSnapshot struct {
	PlanID      *uint
	ExpiredAt   *time.Time
	NextResetAt *time.Time
	HadPlan     bool
	WasExpired  bool
}

// NewOrderSnapshot builds a snapshot from pre-order subscriber state.
// WasExpired is evaluated against the moment the snapshot is taken.
func NewOrderSnapshot(planID *uint, expiredAt, nextResetAt *time.Time, now time.Time) *OrderSnapshot {
	return &OrderSnapshot{
		PlanID:      planID,
		ExpiredAt:   expiredAt,
		NextResetAt: nextResetAt,
		HadPlan:     planID != nil,
		WasExpired:  expiredAt != nil && !expiredAt.After(now),
	}
}

// Scenario classifies an order's relationship to the subscriber's pre-order
// state.
type Scenario string

const (
	ScenarioNewPurchase       Scenario = "new_purchase"
	ScenarioExpiredRepurchase Scenario = "expired_repurchase"
	ScenarioRenewal           Scenario = "renewal"
	ScenarioPlanChange        Scenario = "plan_change"
)

// Classify determines the order scenario. Rules are evaluated in order and the
// first match wins; in particular an expired account buying a different plan
// classifies as ExpiredRepurchase, not PlanChange, because it is functionally
// a fresh start.
func Classify(snap *OrderSnapshot, order Order, currentPlanID *uint) Scenario {
	if snap == nil {
		// Crash recovery or direct invocation: fall back to the order's
		// declared intent.
		switch order.Type {
		case OrderTypeRenewal:
			return ScenarioRenewal
		case OrderTypeUpgrade:
			return ScenarioPlanChange
		default:
			return ScenarioNewPurchase
		}
	}

	if !snap.HadPlan {
		return ScenarioNewPurchase
	}
	if snap.WasExpired {
		return ScenarioExpiredRepurchase
	}
	if snap.PlanID != nil && currentPlanID != nil && *snap.PlanID != *currentPlanID {
		return ScenarioPlanChange
	}
	return ScenarioRenewal
}
