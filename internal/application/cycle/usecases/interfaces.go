// Package usecases wires the pure cycle arithmetic to storage: the order
// event handler, the reset-sync hook, and the three background batch jobs.
package usecases

import (
	"context"

	"vetiver/internal/domain/cycle"
	"vetiver/internal/domain/subscriber"
	"vetiver/internal/shared/config"
)

// TrafficResetter performs an actual traffic reset on a subscriber: zeroing
// the usage counters, stamping last_reset_at and recording its own audit
// entry. It mutates the aggregate in place; persisting the aggregate is the
// caller's job so the reset joins the caller's transaction.
type TrafficResetter interface {
	PerformReset(ctx context.Context, sub *subscriber.Subscriber, source string) error
}

// TransactionRunner runs a function inside a storage transaction. Satisfied
// by db.TransactionManager.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// policyDefaults translates the configured fallbacks into resolver input. An
// unparseable default method degrades to "never" rather than failing the
// caller.
func policyDefaults(cfg *config.CycleConfig) cycle.PolicyDefaults {
	method, ok := cycle.ParseResetMethod(cfg.DefaultResetMethod)
	if !ok {
		method = cycle.ResetNever
	}
	return cycle.PolicyDefaults{
		IntervalDays: cfg.DefaultIntervalDays,
		Method:       method,
	}
}

func batchSize(cfg *config.CycleConfig) int {
	if cfg.BatchSize > 0 {
		return cfg.BatchSize
	}
	return 500
}

func exhaustionThreshold(cfg *config.CycleConfig) float64 {
	if cfg.ExhaustionThreshold > 0 {
		return cfg.ExhaustionThreshold
	}
	return 0.99
}
