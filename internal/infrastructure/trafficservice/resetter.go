// Package trafficservice implements the traffic-reset primitive the cycle
// engine delegates to.
package trafficservice

import (
	"context"
	"fmt"

	"vetiver/internal/domain/subscriber"
	"vetiver/internal/shared/biztime"
	"vetiver/internal/shared/logger"
)

// Resetter zeroes a subscriber's usage counters, stamps last_reset_at, and
// records its own audit entry. It mutates the aggregate in place; the caller
// persists it inside the caller's transaction.
type Resetter struct {
	auditRepo subscriber.CycleAuditLogRepository
	logger    logger.Interface
}

func NewResetter(auditRepo subscriber.CycleAuditLogRepository, logger logger.Interface) *Resetter {
	return &Resetter{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

func (r *Resetter) PerformReset(ctx context.Context, sub *subscriber.Subscriber, source string) error {
	now := biztime.NowUTC()

	usedBefore := sub.TotalUsed()
	sub.RecordReset(now)

	entry := subscriber.NewCycleAuditLog(sub.ID(), source, "traffic_reset",
		sub.ExpiredAt(), sub.ExpiredAt(), sub.NextResetAt(), sub.NextResetAt(), now)
	if err := r.auditRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create reset audit log: %w", err)
	}

	r.logger.Infow("reset subscriber traffic",
		"subscriber_id", sub.ID(),
		"source", source,
		"used_before", usedBefore)
	return nil
}
