package usecases

import (
	"context"
	"fmt"

	"vetiver/internal/domain/cycle"
	"vetiver/internal/domain/subscriber"
	"vetiver/internal/shared/biztime"
	"vetiver/internal/shared/config"
	"vetiver/internal/shared/errors"
	"vetiver/internal/shared/logger"
)

// SyncTrafficResetUseCase realigns a subscriber's next scheduled reset after
// a traffic reset has happened, under custom policies only. Structured
// schedules are owned by the system-default reset mechanism and are never
// touched here. Calling it twice in a row is a no-op the second time.
type SyncTrafficResetUseCase struct {
	subscriberRepo subscriber.SubscriberRepository
	planRepo       subscriber.PlanRepository
	auditRepo      subscriber.CycleAuditLogRepository
	txMgr          TransactionRunner
	cfg            *config.CycleConfig
	logger         logger.Interface
}

func NewSyncTrafficResetUseCase(
	subscriberRepo subscriber.SubscriberRepository,
	planRepo subscriber.PlanRepository,
	auditRepo subscriber.CycleAuditLogRepository,
	txMgr TransactionRunner,
	cfg *config.CycleConfig,
	logger logger.Interface,
) *SyncTrafficResetUseCase {
	return &SyncTrafficResetUseCase{
		subscriberRepo: subscriberRepo,
		planRepo:       planRepo,
		auditRepo:      auditRepo,
		txMgr:          txMgr,
		cfg:            cfg,
		logger:         logger,
	}
}

func (uc *SyncTrafficResetUseCase) Execute(ctx context.Context, subscriberID uint) error {
	if !uc.cfg.Enabled {
		return nil
	}
	if subscriberID == 0 {
		return errors.NewValidationError("subscriber ID is required")
	}

	now := biztime.NowUTC()

	sub, err := uc.subscriberRepo.GetByID(ctx, subscriberID)
	if err != nil {
		return fmt.Errorf("failed to get subscriber: %w", err)
	}
	if sub == nil {
		return errors.NewNotFoundError(fmt.Sprintf("subscriber %d not found", subscriberID))
	}
	if !sub.HasPlan() {
		return nil
	}

	plan, err := uc.planRepo.GetByID(ctx, *sub.PlanID())
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		uc.logger.Warnw("subscriber references missing plan, skipping reset sync",
			"subscriber_id", subscriberID, "plan_id", *sub.PlanID())
		return nil
	}

	policy := cycle.ResolvePolicy(plan.PolicySnapshot(), policyDefaults(uc.cfg))
	next, governed := cycle.NextResetAfterReset(policy, sub.ExpiredAt(), now)
	if !governed {
		uc.logger.Debugw("structured policy, schedule managed by default mechanism",
			"subscriber_id", subscriberID)
		return nil
	}
	if sub.NextResetMatches(next) {
		return nil
	}

	nextResetBefore := sub.NextResetAt()
	sub.ScheduleReset(next)

	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.subscriberRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscriber: %w", err)
		}
		entry := subscriber.NewCycleAuditLog(sub.ID(), subscriber.AuditSourceTrafficReset, "reset_schedule_sync",
			sub.ExpiredAt(), sub.ExpiredAt(), nextResetBefore, next, now)
		if err := uc.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to create audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Infow("synced next reset after traffic reset",
		"subscriber_id", subscriberID, "next_reset_at", next)
	return nil
}
