package usecases

import (
	"context"
	"fmt"
	"time"

	"vetiver/internal/domain/cycle"
	"vetiver/internal/domain/subscriber"
	"vetiver/internal/shared/biztime"
	"vetiver/internal/shared/config"
	"vetiver/internal/shared/logger"
)

// tagSweepCheckpoint names the persisted checkpoint the tag-change sweep
// advances after each complete pass.
const tagSweepCheckpoint = "plan_tag_sweep"

// TagChangeSweepJob detects plans whose cycle tags were edited since the last
// completed pass and realigns their subscribers' schedules. The checkpoint is
// only advanced after a pass with no failures, so a partially failed sweep is
// retried in full on the next run.
type TagChangeSweepJob struct {
	subscriberRepo subscriber.SubscriberRepository
	planRepo       subscriber.PlanRepository
	checkpointRepo subscriber.SweepCheckpointRepository
	auditRepo      subscriber.CycleAuditLogRepository
	txMgr          TransactionRunner
	cfg            *config.CycleConfig
	logger         logger.Interface
}

func NewTagChangeSweepJob(
	subscriberRepo subscriber.SubscriberRepository,
	planRepo subscriber.PlanRepository,
	checkpointRepo subscriber.SweepCheckpointRepository,
	auditRepo subscriber.CycleAuditLogRepository,
	txMgr TransactionRunner,
	cfg *config.CycleConfig,
	logger logger.Interface,
) *TagChangeSweepJob {
	return &TagChangeSweepJob{
		subscriberRepo: subscriberRepo,
		planRepo:       planRepo,
		checkpointRepo: checkpointRepo,
		auditRepo:      auditRepo,
		txMgr:          txMgr,
		cfg:            cfg,
		logger:         logger,
	}
}

// Execute returns the number of subscribers whose schedules were rewritten.
func (j *TagChangeSweepJob) Execute(ctx context.Context) (int, error) {
	if !j.cfg.Enabled {
		return 0, nil
	}

	sweepStart := biztime.NowUTC()

	since, err := j.checkpointRepo.Get(ctx, tagSweepCheckpoint)
	if err != nil {
		return 0, fmt.Errorf("failed to read sweep checkpoint: %w", err)
	}

	plans, err := j.planRepo.ListUpdatedSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list updated plans: %w", err)
	}

	count := 0
	clean := true
	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if !plan.CarriesCycleTags() {
			continue
		}
		n, err := j.sweepPlan(ctx, plan, sweepStart)
		count += n
		if err != nil {
			clean = false
			j.logger.Errorw("tag-change sweep failed for plan",
				"plan_id", plan.ID(), "error", err)
		}
	}

	if clean {
		if err := j.checkpointRepo.Advance(ctx, tagSweepCheckpoint, sweepStart); err != nil {
			return count, fmt.Errorf("failed to advance sweep checkpoint: %w", err)
		}
	}

	if count > 0 {
		j.logger.Infow("tag-change sweep completed",
			"plans", len(plans), "subscribers_updated", count, "clean", clean)
	}
	return count, nil
}

func (j *TagChangeSweepJob) sweepPlan(ctx context.Context, plan *subscriber.Plan, now time.Time) (int, error) {
	policy := cycle.ResolvePolicy(plan.PolicySnapshot(), policyDefaults(j.cfg))
	_, hasExpiredTag := cycle.TagValue(plan.Tags(), cycle.TagExpiredDays)

	limit := batchSize(j.cfg)
	count := 0
	var firstErr error
	var cursor uint
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		subs, err := j.subscriberRepo.ListByPlanID(ctx, plan.ID(), cursor, limit)
		if err != nil {
			return count, fmt.Errorf("failed to list subscribers for plan %d: %w", plan.ID(), err)
		}
		if len(subs) == 0 {
			break
		}

		for _, sub := range subs {
			changed, err := j.reconcileSubscriber(ctx, sub, policy, hasExpiredTag, now)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				j.logger.Errorw("failed to realign subscriber after tag change",
					"subscriber_id", sub.ID(), "plan_id", plan.ID(), "error", err)
				continue
			}
			if changed {
				count++
			}
		}

		cursor = subs[len(subs)-1].ID()
		if len(subs) < limit {
			break
		}
	}
	return count, firstErr
}

func (j *TagChangeSweepJob) reconcileSubscriber(ctx context.Context, sub *subscriber.Subscriber, policy cycle.EffectivePolicy, hasExpiredTag bool, now time.Time) (bool, error) {
	desiredExpired := sub.ExpiredAt()
	// Expiration recompute has no order period to work from, so it re-derives
	// the term from the last reset using the tag-declared base days. Only done
	// when the plan actually declares that tag.
	if j.cfg.EnableExpiredAtCalculation && hasExpiredTag && sub.ExpiredAt() != nil {
		anchor := now
		if sub.LastResetAt() != nil {
			anchor = *sub.LastResetAt()
		}
		recomputed := cycle.RecomputeExpiration(policy, anchor)
		desiredExpired = &recomputed
	}

	desiredNext := sub.NextResetAt()
	if policy.IsCustom() {
		if policy.IntervalDays <= 0 {
			desiredNext = nil
		} else {
			anchor := now
			if sub.LastResetAt() != nil {
				anchor = *sub.LastResetAt()
			}
			desiredNext, _ = cycle.ExpectedNextReset(policy, anchor, desiredExpired, now)
		}
	}
	if desiredNext != nil && desiredExpired != nil && desiredNext.After(*desiredExpired) {
		desiredNext = desiredExpired
	}

	if sub.ExpirationMatches(desiredExpired) && sub.NextResetMatches(desiredNext) {
		return false, nil
	}

	expiredBefore := sub.ExpiredAt()
	nextResetBefore := sub.NextResetAt()
	if err := sub.ApplyCycle(desiredExpired, desiredNext); err != nil {
		return false, err
	}

	err := j.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := j.subscriberRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscriber: %w", err)
		}
		entry := subscriber.NewCycleAuditLog(sub.ID(), subscriber.AuditSourceSync, "plan_tag_change",
			expiredBefore, desiredExpired, nextResetBefore, desiredNext, now)
		if err := j.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to create audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// DriftCorrectionSweepJob re-derives every active custom-policy subscriber's
// expected next reset from first principles and rewrites the stored value when
// it has drifted beyond the configured tolerance. Rerunning it immediately
// finds nothing to fix.
type DriftCorrectionSweepJob struct {
	subscriberRepo subscriber.SubscriberRepository
	planRepo       subscriber.PlanRepository
	auditRepo      subscriber.CycleAuditLogRepository
	txMgr          TransactionRunner
	cfg            *config.CycleConfig
	logger         logger.Interface
}

func NewDriftCorrectionSweepJob(
	subscriberRepo subscriber.SubscriberRepository,
	planRepo subscriber.PlanRepository,
	auditRepo subscriber.CycleAuditLogRepository,
	txMgr TransactionRunner,
	cfg *config.CycleConfig,
	logger logger.Interface,
) *DriftCorrectionSweepJob {
	return &DriftCorrectionSweepJob{
		subscriberRepo: subscriberRepo,
		planRepo:       planRepo,
		auditRepo:      auditRepo,
		txMgr:          txMgr,
		cfg:            cfg,
		logger:         logger,
	}
}

// Execute returns the number of corrected schedules.
func (j *DriftCorrectionSweepJob) Execute(ctx context.Context) (int, error) {
	if !j.cfg.Enabled {
		return 0, nil
	}

	now := biztime.NowUTC()
	tolerance := j.driftTolerance()
	limit := batchSize(j.cfg)
	plans := make(map[uint]*subscriber.Plan)

	count := 0
	var cursor uint
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		subs, err := j.subscriberRepo.ListActiveWithPlan(ctx, now, cursor, limit)
		if err != nil {
			return count, fmt.Errorf("failed to list active subscribers: %w", err)
		}
		if len(subs) == 0 {
			break
		}

		for _, sub := range subs {
			corrected, err := j.correctOne(ctx, sub, plans, tolerance, now)
			if err != nil {
				j.logger.Errorw("drift correction failed for subscriber",
					"subscriber_id", sub.ID(), "error", err)
				continue
			}
			if corrected {
				count++
			}
		}

		cursor = subs[len(subs)-1].ID()
		if len(subs) < limit {
			break
		}
	}

	if count > 0 {
		j.logger.Infow("drift-correction sweep completed", "corrections", count)
	}
	return count, nil
}

func (j *DriftCorrectionSweepJob) correctOne(ctx context.Context, sub *subscriber.Subscriber, plans map[uint]*subscriber.Plan, tolerance time.Duration, now time.Time) (bool, error) {
	if !sub.HasPlan() {
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
	if !policy.IsCustom() || policy.IntervalDays <= 0 {
		return false, nil
	}

	// Anchor preference: the real last reset, then the stored schedule minus
	// one interval, then now for subscribers missing a schedule entirely.
	anchor := now
	if sub.LastResetAt() != nil {
		anchor = *sub.LastResetAt()
	} else if sub.NextResetAt() != nil {
		anchor = sub.NextResetAt().AddDate(0, 0, -policy.IntervalDays)
	}

	expected, ok := cycle.ExpectedNextReset(policy, anchor, sub.ExpiredAt(), now)
	if !ok {
		return false, nil
	}

	stored := sub.NextResetAt()
	if stored != nil {
		drift := stored.Sub(*expected)
		if drift < 0 {
			drift = -drift
		}
		if drift <= tolerance {
			return false, nil
		}
	}

	expiredAt := sub.ExpiredAt()
	nextResetBefore := stored
	sub.ScheduleReset(expected)

	err := j.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := j.subscriberRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update subscriber: %w", err)
		}
		entry := subscriber.NewCycleAuditLog(sub.ID(), subscriber.AuditSourceScheduledFix, "drift_correction",
			expiredAt, expiredAt, nextResetBefore, expected, now)
		if err := j.auditRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to create audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	j.logger.Infow("corrected drifted reset schedule",
		"subscriber_id", sub.ID(),
		"stored", nextResetBefore,
		"expected", expected)
	return true, nil
}

func (j *DriftCorrectionSweepJob) driftTolerance() time.Duration {
	hours := j.cfg.DriftToleranceHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}
