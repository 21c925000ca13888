package cycle

import "time"

// structuredEarlyResetWindow is the affordability margin for structured
// policies: an early reset must leave more than this much runway before
// expiration.
const structuredEarlyResetWindow = 30 * 24 * time.Hour

// ComputeExpiration calculates the new expiration instant for an order event.
//
// A renewal with a known prior expiration extends from that expiration; every
// other scenario starts a fresh term from now. The purchased term is always
// measured in calendar months, one per period multiplier, regardless of the
// reset policy: a custom reset interval governs when traffic resets, not how
// long a month of service lasts. Day-based terms (ExpireBaseDays) only apply
// to the background recompute path where no order period is known, see
// RecomputeExpiration.
func ComputeExpiration(scenario Scenario, policy EffectivePolicy, period OrderPeriod, priorExpiration *time.Time, now time.Time) time.Time {
	mult, _ := period.Multiplier()

	base := now
	if scenario == ScenarioRenewal && priorExpiration != nil {
		base = *priorExpiration
	}
	return base.AddDate(0, mult, 0)
}

// RecomputeExpiration re-derives an expiration with no order period to work
// from: the policy's base day count out from the anchor, normally the last
// reset. Used by the tag-change sweep only.
func RecomputeExpiration(policy EffectivePolicy, anchor time.Time) time.Time {
	return anchor.AddDate(0, 0, policy.ExpireBaseDays)
}

// ComputeNextReset calculates the next scheduled traffic reset for an order
// event. The second return value reports whether the engine governs the field
// at all: structured policies are scheduled by the system-default mechanism
// and must not be overwritten here.
//
// A renewal keeps a still-future prior schedule untouched; everything else
// restarts the cycle from now. The result is clamped so a reset is never
// scheduled after expiration.
func ComputeNextReset(scenario Scenario, policy EffectivePolicy, snap *OrderSnapshot, expiration *time.Time, now time.Time) (*time.Time, bool) {
	if !policy.IsCustom() {
		return nil, false
	}
	if policy.IntervalDays <= 0 {
		// Explicitly disabled auto-reset.
		return nil, true
	}

	if scenario == ScenarioRenewal && snap != nil && snap.NextResetAt != nil && snap.NextResetAt.After(now) {
		kept := *snap.NextResetAt
		return clampToExpiration(kept, expiration), true
	}

	candidate := now.AddDate(0, 0, policy.IntervalDays)
	return clampToExpiration(candidate, expiration), true
}

// NextResetAfterReset computes the schedule that should follow a traffic
// reset that just happened under a custom policy: one interval out from now,
// clamped to expiration. Returns nil for disabled custom intervals, and
// (nil, false) when the policy is not custom.
func NextResetAfterReset(policy EffectivePolicy, expiration *time.Time, now time.Time) (*time.Time, bool) {
	if !policy.IsCustom() {
		return nil, false
	}
	if policy.IntervalDays <= 0 {
		return nil, true
	}
	candidate := now.AddDate(0, 0, policy.IntervalDays)
	return clampToExpiration(candidate, expiration), true
}

// ExpectedNextReset derives the schedule the current policy would produce
// independent of the stored value, anchored at base (normally last_reset_at).
// It advances whole intervals until the result is in the future, handling
// multi-cycle catch-up after downtime, then clamps to expiration.
func ExpectedNextReset(policy EffectivePolicy, base time.Time, expiration *time.Time, now time.Time) (*time.Time, bool) {
	if !policy.IsCustom() || policy.IntervalDays <= 0 {
		return nil, false
	}
	expected := base.AddDate(0, 0, policy.IntervalDays)
	for !expected.After(now) {
		expected = expected.AddDate(0, 0, policy.IntervalDays)
	}
	return clampToExpiration(expected, expiration), true
}

// EarlyResetEligible reports whether an early reset is affordable: shortening
// expiration by one cycle must not consume the remaining term. Custom
// policies need more than one interval of runway; structured policies are
// only eligible for the monthly variants and need more than 30 days.
func EarlyResetEligible(policy EffectivePolicy, expiredAt *time.Time, now time.Time) bool {
	if expiredAt == nil || !expiredAt.After(now) {
		return false
	}
	remaining := expiredAt.Sub(now)

	switch policy.Kind {
	case PolicyCustom:
		if policy.IntervalDays <= 0 {
			return false
		}
		return remaining > time.Duration(policy.IntervalDays)*24*time.Hour
	case PolicyStructured:
		if policy.Method != ResetMonthlyAnniversary && policy.Method != ResetFirstDayOfMonth {
			return false
		}
		return remaining > structuredEarlyResetWindow
	default:
		return false
	}
}

// ShortenExpirationByCycle applies the early-reset cost: one cycle off the
// expiration, policy-specific. The second return value is false when the
// policy has no shortening rule (ineligible policies).
//
//   - Custom: subtract IntervalDays days, then normalize the time of day to
//     now's clock so repeated early resets don't accumulate sub-day drift.
//   - monthly_anniversary: pull the expiration's day-of-month back to today's
//     day within the same or prior month, then normalize the time of day.
//   - first_day_of_month: subtract exactly one calendar month, preserving the
//     time of day.
func ShortenExpirationByCycle(policy EffectivePolicy, expiredAt, now time.Time) (time.Time, bool) {
	switch policy.Kind {
	case PolicyCustom:
		if policy.IntervalDays <= 0 {
			return expiredAt, false
		}
		shortened := expiredAt.AddDate(0, 0, -policy.IntervalDays)
		return withClockOf(shortened, now), true

	case PolicyStructured:
		switch policy.Method {
		case ResetMonthlyAnniversary:
			var shortened time.Time
			if now.Day() < expiredAt.Day() {
				shortened = expiredAt.AddDate(0, 0, now.Day()-expiredAt.Day())
			} else {
				shortened = expiredAt.AddDate(0, -1, 0)
			}
			return withClockOf(shortened, now), true
		case ResetFirstDayOfMonth:
			return expiredAt.AddDate(0, -1, 0), true
		}
	}
	return expiredAt, false
}

// clampToExpiration caps a candidate reset instant at the expiration instant;
// a subscriber can never have a scheduled reset after they are expired.
func clampToExpiration(candidate time.Time, expiration *time.Time) *time.Time {
	if expiration != nil && candidate.After(*expiration) {
		clamped := *expiration
		return &clamped
	}
	return &candidate
}

// withClockOf keeps the date of t and takes the wall-clock time of clock.
func withClockOf(t, clock time.Time) time.Time {
	return time.Date(
		t.Year(), t.Month(), t.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(),
		t.Location(),
	)
}
