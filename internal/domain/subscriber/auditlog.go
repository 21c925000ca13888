package subscriber

import "time"

// Audit sources identify which trigger mutated a subscriber's cycle fields.
const (
	AuditSourceOrderOpen    = "order_open"
	AuditSourceTrafficReset = "traffic_reset"
	AuditSourceSync         = "sync"
	AuditSourceScheduledFix = "scheduled_fix"
	AuditSourceEarlyReset   = "early_reset"
)

// CycleAuditLog is an append-only record of a cycle field mutation, carrying
// the before/after pair for both temporal fields. It is a plain record, not
// an aggregate.
type CycleAuditLog struct {
	ID              uint
	SubscriberID    uint
	Source          string
	Event           string
	ExpiredBefore   *time.Time
	ExpiredAfter    *time.Time
	NextResetBefore *time.Time
	NextResetAfter  *time.Time
	CreatedAt       time.Time
}

// NewCycleAuditLog builds an audit record stamped at now.
func NewCycleAuditLog(subscriberID uint, source, event string, expiredBefore, expiredAfter, nextResetBefore, nextResetAfter *time.Time, now time.Time) *CycleAuditLog {
	return &CycleAuditLog{
		SubscriberID:    subscriberID,
		Source:          source,
		Event:           event,
		ExpiredBefore:   expiredBefore,
		ExpiredAfter:    expiredAfter,
		NextResetBefore: nextResetBefore,
		NextResetAfter:  nextResetAfter,
		CreatedAt:       now,
	}
}
