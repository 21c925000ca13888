package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"nil input", nil, nil},
		{"string slice passthrough", []string{"a", "b"}, []string{"a", "b"}},
		{"trims and drops empties", []string{" a ", "", "  "}, []string{"a"}},
		{"json array string", `["interval_days:7","premium"]`, []string{"interval_days:7", "premium"}},
		{"comma separated string", "interval_days:7, premium ,", []string{"interval_days:7", "premium"}},
		{"empty string", "   ", nil},
		{"any slice from json decoding", []any{"a", 3, "b"}, []string{"a", "b"}},
		{"malformed json array falls back to comma split", `["a",`, []string{`["a"`}},
		{"unsupported type", 42, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.raw))
		})
	}
}

func TestTagValue(t *testing.T) {
	tags := []string{"premium", "interval_days:7", "interval_days:9"}

	val, ok := TagValue(tags, TagIntervalDays)
	assert.True(t, ok)
	assert.Equal(t, "7", val)

	_, ok = TagValue(tags, TagExpiredDays)
	assert.False(t, ok)
}

func TestResolvePolicy(t *testing.T) {
	defaults := PolicyDefaults{IntervalDays: 30, Method: ResetMonthlyAnniversary}

	plan := func(tags []string, method ResetMethod) *PlanSnapshot {
		return &PlanSnapshot{ID: 1, Tags: tags, ResetMethod: method}
	}

	t.Run("nil plan is inactive", func(t *testing.T) {
		got := ResolvePolicy(nil, defaults)
		assert.True(t, got.IsInactive())
		assert.True(t, got.AutoResetDisabled())
	})

	t.Run("interval tag yields a custom policy", func(t *testing.T) {
		got := ResolvePolicy(plan([]string{"interval_days:7"}, ResetMonthlyAnniversary), defaults)
		assert.True(t, got.IsCustom())
		assert.Equal(t, 7, got.IntervalDays)
		assert.Equal(t, 7, got.ExpireBaseDays)
	})

	t.Run("first valid positive interval wins", func(t *testing.T) {
		got := ResolvePolicy(plan([]string{"interval_days:abc", "interval_days:-3", "interval_days:10", "interval_days:5"}, ""), defaults)
		assert.True(t, got.IsCustom())
		assert.Equal(t, 10, got.IntervalDays)
	})

	t.Run("expired days tag overrides the expiration base", func(t *testing.T) {
		got := ResolvePolicy(plan([]string{"interval_days:7", "expired_days:45"}, ""), defaults)
		assert.True(t, got.IsCustom())
		assert.Equal(t, 7, got.IntervalDays)
		assert.Equal(t, 45, got.ExpireBaseDays)
	})

	t.Run("no interval tag yields the plan's structured method", func(t *testing.T) {
		got := ResolvePolicy(plan([]string{"premium"}, ResetFirstDayOfMonth), defaults)
		assert.True(t, got.IsStructured())
		assert.Equal(t, ResetFirstDayOfMonth, got.Method)
		assert.Equal(t, 30, got.ExpireBaseDays)
	})

	t.Run("malformed interval tag falls through to structured", func(t *testing.T) {
		got := ResolvePolicy(plan([]string{"interval_days:soon"}, ResetYearlyAnniversary), defaults)
		assert.True(t, got.IsStructured())
		assert.Equal(t, ResetYearlyAnniversary, got.Method)
	})

	t.Run("missing method falls back to the default", func(t *testing.T) {
		got := ResolvePolicy(plan(nil, ""), defaults)
		assert.True(t, got.IsStructured())
		assert.Equal(t, ResetMonthlyAnniversary, got.Method)
	})

	t.Run("no method anywhere resolves to never", func(t *testing.T) {
		got := ResolvePolicy(plan(nil, ""), PolicyDefaults{IntervalDays: 30})
		assert.True(t, got.IsStructured())
		assert.Equal(t, ResetNever, got.Method)
		assert.True(t, got.AutoResetDisabled())
	})

	t.Run("expired days without interval still applies to structured", func(t *testing.T) {
		got := ResolvePolicy(plan([]string{"expired_days:90"}, ResetMonthlyAnniversary), defaults)
		assert.True(t, got.IsStructured())
		assert.Equal(t, 90, got.ExpireBaseDays)
	})
}

func TestHasCyclePolicyTags(t *testing.T) {
	assert.True(t, HasCyclePolicyTags([]string{"interval_days:7"}))
	assert.True(t, HasCyclePolicyTags([]string{"expired_days:bogus"}))
	assert.False(t, HasCyclePolicyTags([]string{"premium", "trial"}))
	assert.False(t, HasCyclePolicyTags(nil))
}

func TestParseResetMethod(t *testing.T) {
	m, ok := ParseResetMethod("monthly_anniversary")
	assert.True(t, ok)
	assert.Equal(t, ResetMonthlyAnniversary, m)

	_, ok = ParseResetMethod("")
	assert.False(t, ok)

	_, ok = ParseResetMethod("weekly")
	assert.False(t, ok)
}
