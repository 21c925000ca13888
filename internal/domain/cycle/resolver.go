package cycle

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	// TagIntervalDays declares a per-plan custom cycle: interval_days:N.
	TagIntervalDays = "interval_days"
	// TagExpiredDays declares a base day count for expiration recompute when
	// no order period is known: expired_days:N.
	TagExpiredDays = "expired_days"
)

// PlanSnapshot is the minimal plan view the resolver needs. The subscriber
// aggregate produces it so this package stays free of persistence concerns.
type PlanSnapshot struct {
	ID          uint
	Tags        []string
	ResetMethod ResetMethod // zero value means "use the system default"
	UpdatedAt   time.Time
}

// PolicyDefaults carries the process-wide fallbacks applied when a plan
// declares neither a custom interval nor a structured method.
type PolicyDefaults struct {
	IntervalDays int
	Method       ResetMethod
}

// NormalizeTags flattens any stored tag representation into a canonical
// ordered slice of trimmed, non-empty strings. Accepted inputs: a string
// slice, a JSON array string, a comma-separated string, or nil. This is the
// single normalization boundary; everything downstream consumes the slice.
func NormalizeTags(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var decoded []string
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				parts = decoded
				break
			}
		}
		parts = strings.Split(s, ",")
	default:
		return nil
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// TagValue scans tags for the first occurrence of "name:value" and returns
// the raw value. First occurrence wins; later duplicates are ignored.
func TagValue(tags []string, name string) (string, bool) {
	prefix := name + ":"
	for _, tag := range tags {
		if strings.HasPrefix(tag, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(tag, prefix)), true
		}
	}
	return "", false
}

// tagPositiveInt returns the first syntactically valid positive integer
// declared for the tag. Malformed or non-positive values are skipped, not
// treated as errors.
func tagPositiveInt(tags []string, name string) (int, bool) {
	prefix := name + ":"
	for _, tag := range tags {
		if !strings.HasPrefix(tag, prefix) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(tag, prefix))
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			continue
		}
		return n, true
	}
	return 0, false
}

// ResolvePolicy derives the effective cycle policy for a plan. A valid
// interval_days tag always yields a custom policy; otherwise the plan's
// structured method applies, falling back to the configured default. A nil
// plan yields the inactive policy.
func ResolvePolicy(plan *PlanSnapshot, defaults PolicyDefaults) EffectivePolicy {
	if plan == nil {
		return InactivePolicy()
	}

	expireBase := defaults.IntervalDays
	if days, ok := tagPositiveInt(plan.Tags, TagExpiredDays); ok {
		expireBase = days
	}

	if interval, ok := tagPositiveInt(plan.Tags, TagIntervalDays); ok {
		base := expireBase
		if _, declared := tagPositiveInt(plan.Tags, TagExpiredDays); !declared {
			base = interval
		}
		return EffectivePolicy{
			Kind:           PolicyCustom,
			IntervalDays:   interval,
			ExpireBaseDays: base,
			PlanID:         plan.ID,
		}
	}

	method := plan.ResetMethod
	if !method.IsValid() {
		method = defaults.Method
	}
	if !method.IsValid() {
		method = ResetNever
	}
	return EffectivePolicy{
		Kind:           PolicyStructured,
		Method:         method,
		ExpireBaseDays: expireBase,
		PlanID:         plan.ID,
	}
}

// HasCyclePolicyTags reports whether the tag set carries either of the
// cycle-governing tags, valid or not. The tag-change sweep uses it to decide
// whether a modified plan affects its subscribers.
func HasCyclePolicyTags(tags []string) bool {
	_, hasInterval := TagValue(tags, TagIntervalDays)
	_, hasExpired := TagValue(tags, TagExpiredDays)
	return hasInterval || hasExpired
}
