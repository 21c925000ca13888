package usecases

import (
	"context"
	"fmt"

	"vetiver/internal/domain/cycle"
	"vetiver/internal/domain/subscriber"
	"vetiver/internal/shared/biztime"
	"vetiver/internal/shared/config"
	"vetiver/internal/shared/logger"
)

// EarlyResetTriggerJob scans for subscribers that have exhausted their traffic
// quota and, where the policy allows it, grants an immediate reset paid for by
// shortening the subscription term by one cycle. Each subscriber is processed
// in its own transaction; one failure does not abort the batch.
type EarlyResetTriggerJob struct {
	subscriberRepo subscriber.SubscriberRepository
	planRepo       subscriber.PlanRepository
	auditRepo      subscriber.CycleAuditLogRepository
	resetter       TrafficResetter
	txMgr          TransactionRunner
	cfg            *config.CycleConfig
	logger         logger.Interface
}

func NewEarlyResetTriggerJob(
	subscriberRepo subscriber.SubscriberRepository,
	planRepo subscriber.PlanRepository,
	auditRepo subscriber.CycleAuditLogRepository,
	resetter TrafficResetter,
	txMgr TransactionRunner,
	cfg *config.CycleConfig,
	logger logger.Interface,
) *EarlyResetTriggerJob {
	return &EarlyResetTriggerJob{
		subscriberRepo: subscriberRepo,
		planRepo:       planRepo,
		auditRepo:      auditRepo,
		resetter:       resetter,
		txMgr:          txMgr,
		cfg:            cfg,
		logger:         logger,
	}
}

// Execute returns the number of subscribers that received an early reset.
func (j *EarlyResetTriggerJob) Execute(ctx context.Context) (int, error) {
	if !j.cfg.Enabled {
		return 0, nil
	}

	threshold := exhaustionThreshold(j.cfg)
	limit := batchSize(j.cfg)
	plans := make(map[uint]*subscriber.Plan)

	count := 0
	var cursor uint
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		subs, err := j.subscriberRepo.ListExhaustedCandidates(ctx, threshold, cursor, limit)
		if err != nil {
			return count, fmt.Errorf("failed to list exhausted subscribers: %w", err)
		}
		if len(subs) == 0 {
			break
		}

		for _, sub := range subs {
			acted, err := j.processOne(ctx, sub, plans)
			if err != nil {
				j.logger.Errorw("early reset failed for subscriber",
					"subscriber_id", sub.ID(), "error", err)
				continue
			}
			if acted {
				count++
			}
		}

		cursor = subs[len(subs)-1].ID()
		if len(subs) < limit {
			break
		}
	}

	if count > 0 {
		j.logger.Infow("early reset sweep completed", "resets", count)
	}
	return count, nil
}

func (j *EarlyResetTriggerJob) processOne(ctx context.Context, sub *subscriber.Subscriber, plans map[uint]*subscriber.Plan) (bool, error) {
	now := biztime.NowUTC()

	if !sub.HasPlan() || !sub.TrafficExhausted(exhaustionThreshold(j.cfg)) {
		return false, nil
	}

	planID := *sub.PlanID()
	plan, cached := plans[planID]
	if !cached {
		var err error
		plan, err = j.planRepo.GetByID(ctx, planID)
		if err != nil {
			return false, fmt.Errorf("failed to get plan %d: %w", planID, err)
		}
		plans[planID] = plan
	}
	if plan == nil {
		return false, nil
	}

	policy := cycle.ResolvePolicy(plan.PolicySnapshot(), policyDefaults(j.cfg))
	if !j.autoResetEnabled(policy) {
		return false, nil
	}
	if !cycle.EarlyResetEligible(policy, sub.ExpiredAt(), now) {
		return false, nil
	}

	shortened, ok := cycle.ShortenExpirationByCycle(policy, *sub.ExpiredAt(), now)
	if !ok {
		return false, nil
	}
	if !shortened.After(now) {
		// The shortened term would already be over; the reset is not affordable.
		j.logger.Debugw("early reset would expire the subscription, skipping",
			"subscriber_id", sub.ID(), "shortened", shortened)
		return false, nil
	}

	expiredBefore := sub.ExpiredAt()
	nextResetBefore := sub.NextResetAt()

	err := j.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub.SetExpiration(&shortened)
		if err := j.resetter.PerformReset(txCtx, sub, subscriber.AuditSourceEarlyReset); err != nil {
			return fmt.Errorf("failed to perform traffic reset: %w", err)
		}
		if policy.IsCustom() && policy.IntervalDays > 0 {
			next, _ := cycle.NextResetAfterReset(policy, &shortened, now)
			sub.ScheduleReset(next)
		}
		if err := j.subscriberRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscriber: %w", err)
		}
		entry := subscriber.NewCycleAuditLog(sub.ID(), subscriber.AuditSourceEarlyReset, "early_reset",
			expiredBefore, sub.ExpiredAt(), nextResetBefore, sub.NextResetAt(), now)
		if err := j.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to create audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	j.logger.Infow("granted early traffic reset",
		"subscriber_id", sub.ID(),
		"policy", string(policy.Kind),
		"expired_at", sub.ExpiredAt(),
		"next_reset_at", sub.NextResetAt())
	return true, nil
}

// autoResetEnabled maps the resolved policy to its per-kind opt-in flag.
// Structured policies other than the two monthly variants never auto-reset.
func (j *EarlyResetTriggerJob) autoResetEnabled(policy cycle.EffectivePolicy) bool {
	switch {
	case policy.IsCustom():
		return j.cfg.AutoResetOnExceedCustom
	case policy.IsStructured() && policy.Method == cycle.ResetMonthlyAnniversary:
		return j.cfg.AutoResetOnExceedMonthly
	case policy.IsStructured() && policy.Method == cycle.ResetFirstDayOfMonth:
		return j.cfg.AutoResetOnExceedFirstDay
	default:
		return false
	}
}
