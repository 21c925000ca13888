// Package cycle contains the pure subscription cycle engine: policy
// resolution from plan tags, order scenario classification, and the
// expiration/next-reset arithmetic. Nothing in this package touches storage
// or clocks; callers pass "now" explicitly.
package cycle

// ResetMethod enumerates the calendar-aligned (structured) reset policies.
type ResetMethod string

const (
	ResetNever              ResetMethod = "never"
	ResetMonthlyAnniversary ResetMethod = "monthly_anniversary"
	ResetFirstDayOfMonth    ResetMethod = "first_day_of_month"
	ResetYearlyAnniversary  ResetMethod = "yearly_anniversary"
	ResetFirstDayOfYear     ResetMethod = "first_day_of_year"
)

var validResetMethods = map[ResetMethod]bool{
	ResetNever:              true,
	ResetMonthlyAnniversary: true,
	ResetFirstDayOfMonth:    true,
	ResetYearlyAnniversary:  true,
	ResetFirstDayOfYear:     true,
}

// ParseResetMethod parses a stored reset method string. The second return
// value is false for the empty string or an unknown value.
func ParseResetMethod(s string) (ResetMethod, bool) {
	m := ResetMethod(s)
	if validResetMethods[m] {
		return m, true
	}
	return "", false
}

func (m ResetMethod) IsValid() bool {
	return validResetMethods[m]
}

func (m ResetMethod) String() string {
	return string(m)
}

// PolicyKind discriminates the EffectivePolicy union.
type PolicyKind string

const (
	PolicyCustom     PolicyKind = "custom"
	PolicyStructured PolicyKind = "structured"
	PolicyInactive   PolicyKind = "inactive"
)

// EffectivePolicy is the resolved cycle policy for a subscriber. It is a
// tagged union: Custom carries IntervalDays, Structured carries Method.
// Inactive means the subscriber has no plan and the engine leaves both
// temporal fields alone.
type EffectivePolicy struct {
	Kind PolicyKind

	// IntervalDays is the custom cycle length in days. Zero or negative
	// explicitly disables auto-reset for a custom policy.
	IntervalDays int

	// ExpireBaseDays is the day count used for expiration-length computation
	// when no order period is known (background recompute). Resolved from the
	// expired_days tag, falling back to IntervalDays, then the system default.
	ExpireBaseDays int

	// Method is the calendar alignment for structured policies.
	Method ResetMethod

	// PlanID records which plan produced this policy.
	PlanID uint
}

// InactivePolicy is the policy of a subscriber without a plan.
func InactivePolicy() EffectivePolicy {
	return EffectivePolicy{Kind: PolicyInactive}
}

func (p EffectivePolicy) IsCustom() bool {
	return p.Kind == PolicyCustom
}

func (p EffectivePolicy) IsStructured() bool {
	return p.Kind == PolicyStructured
}

func (p EffectivePolicy) IsInactive() bool {
	return p.Kind == PolicyInactive
}

// AutoResetDisabled reports whether the policy schedules no automatic resets
// at all: a custom interval of zero or less, or the structured "never" method.
func (p EffectivePolicy) AutoResetDisabled() bool {
	switch p.Kind {
	case PolicyCustom:
		return p.IntervalDays <= 0
	case PolicyStructured:
		return p.Method == ResetNever
	default:
		return true
	}
}
