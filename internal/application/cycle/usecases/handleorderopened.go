package usecases

import (
	"context"
	"fmt"
	"time"

	"vetiver/internal/domain/cycle"
	"vetiver/internal/domain/subscriber"
	"vetiver/internal/shared/biztime"
	"vetiver/internal/shared/config"
	"vetiver/internal/shared/errors"
	"vetiver/internal/shared/logger"
)

// HandleOrderOpenedCommand carries an activated order plus the pre-order
// subscriber snapshot taken by the caller. Snapshot may be nil on crash
// recovery, in which case classification falls back to the order type.
type HandleOrderOpenedCommand struct {
	Order    cycle.Order
	Snapshot *cycle.OrderSnapshot
}

// HandleOrderOpenedUseCase applies an order event to a subscriber's cycle
// fields: plan assignment, scenario classification, expiration and next-reset
// computation, then a single transactional write with an audit record.
type HandleOrderOpenedUseCase struct {
	subscriberRepo subscriber.SubscriberRepository
	planRepo       subscriber.PlanRepository
	auditRepo      subscriber.CycleAuditLogRepository
	txMgr          TransactionRunner
	cfg            *config.CycleConfig
	logger         logger.Interface
}

func NewHandleOrderOpenedUseCase(
	subscriberRepo subscriber.SubscriberRepository,
	planRepo subscriber.PlanRepository,
	auditRepo subscriber.CycleAuditLogRepository,
	txMgr TransactionRunner,
	cfg *config.CycleConfig,
	logger logger.Interface,
) *HandleOrderOpenedUseCase {
	return &HandleOrderOpenedUseCase{
		subscriberRepo: subscriberRepo,
		planRepo:       planRepo,
		auditRepo:      auditRepo,
		txMgr:          txMgr,
		cfg:            cfg,
		logger:         logger,
	}
}

func (uc *HandleOrderOpenedUseCase) Execute(ctx context.Context, cmd HandleOrderOpenedCommand) error {
	if !uc.cfg.Enabled {
		uc.logger.Debugw("cycle engine disabled, skipping order event", "order_id", cmd.Order.ID)
		return nil
	}
	if cmd.Order.SubscriberID == 0 {
		return errors.NewValidationError("subscriber ID is required")
	}

	now := biztime.NowUTC()

	// The subscriber read and the computed write share one transaction so a
	// usage accumulation landing in between cannot be silently reverted.
	var (
		applied      bool
		subscriberID uint
		scenario     cycle.Scenario
		policy       cycle.EffectivePolicy
		newExpired   *time.Time
		newNextReset *time.Time
	)
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriberRepo.GetByID(txCtx, cmd.Order.SubscriberID)
		if err != nil {
			return fmt.Errorf("failed to get subscriber: %w", err)
		}
		if sub == nil {
			return errors.NewNotFoundError(fmt.Sprintf("subscriber %d not found", cmd.Order.SubscriberID))
		}
		subscriberID = sub.ID()

		expiredBefore := sub.ExpiredAt()
		nextResetBefore := sub.NextResetAt()
		planBefore := sub.PlanID()

		if cmd.Order.PlanID != 0 {
			if err := sub.ChangePlan(cmd.Order.PlanID); err != nil {
				return errors.NewValidationError(err.Error())
			}
		}
		planChanged := !planIDsEqual(planBefore, sub.PlanID())

		scenario = cycle.Classify(cmd.Snapshot, cmd.Order, sub.PlanID())

		if sub.PlanID() == nil {
			uc.logger.Warnw("order carries no plan and subscriber has none, nothing to compute",
				"order_id", cmd.Order.ID, "subscriber_id", sub.ID())
			return nil
		}
		plan, err := uc.planRepo.GetByID(txCtx, *sub.PlanID())
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}
		if plan == nil {
			return errors.NewNotFoundError(fmt.Sprintf("plan %d not found", *sub.PlanID()))
		}

		policy = cycle.ResolvePolicy(plan.PolicySnapshot(), policyDefaults(uc.cfg))

		if _, known := cmd.Order.Period.Multiplier(); !known {
			uc.logger.Warnw("unknown order period, defaulting to one cycle",
				"order_id", cmd.Order.ID, "period", string(cmd.Order.Period))
		}

		priorExpiration := expiredBefore
		if cmd.Snapshot != nil {
			priorExpiration = cmd.Snapshot.ExpiredAt
		}

		newExpired = expiredBefore
		if uc.cfg.EnableExpiredAtCalculation {
			computed := cycle.ComputeExpiration(scenario, policy, cmd.Order.Period, priorExpiration, now)
			newExpired = &computed
		}

		newNextReset = nextResetBefore
		if next, governed := cycle.ComputeNextReset(scenario, policy, cmd.Snapshot, newExpired, now); governed {
			newNextReset = next
		}
		// A shrunken expiration may undercut an ungoverned schedule.
		if newNextReset != nil && newExpired != nil && newNextReset.After(*newExpired) {
			newNextReset = newExpired
		}

		if !planChanged && sub.ExpirationMatches(newExpired) && sub.NextResetMatches(newNextReset) {
			uc.logger.Debugw("order produced no cycle change",
				"order_id", cmd.Order.ID, "subscriber_id", sub.ID(), "scenario", string(scenario))
			return nil
		}

		if err := sub.ApplyCycle(newExpired, newNextReset); err != nil {
			return fmt.Errorf("failed to apply cycle fields: %w", err)
		}

		if err := uc.subscriberRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscriber: %w", err)
		}
		entry := subscriber.NewCycleAuditLog(sub.ID(), subscriber.AuditSourceOrderOpen, string(scenario),
			expiredBefore, newExpired, nextResetBefore, newNextReset, now)
		if err := uc.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to create audit log: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	uc.logger.Infow("applied order cycle update",
		"order_id", cmd.Order.ID,
		"subscriber_id", subscriberID,
		"scenario", string(scenario),
		"policy", string(policy.Kind),
		"expired_at", newExpired,
		"next_reset_at", newNextReset)
	return nil
}

func planIDsEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
