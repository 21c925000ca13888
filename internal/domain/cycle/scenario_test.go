package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	planID := uint(3)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	t.Run("active subscriber", func(t *testing.T) {
		snap := NewOrderSnapshot(&planID, &future, nil, now)
		assert.True(t, snap.HadPlan)
		assert.False(t, snap.WasExpired)
	})

	t.Run("expired subscriber", func(t *testing.T) {
		snap := NewOrderSnapshot(&planID, &past, nil, now)
		assert.True(t, snap.HadPlan)
		assert.True(t, snap.WasExpired)
	})

	t.Run("no plan and no expiration", func(t *testing.T) {
		snap := NewOrderSnapshot(nil, nil, nil, now)
		assert.False(t, snap.HadPlan)
		assert.False(t, snap.WasExpired)
	})

	t.Run("expiration exactly now counts as expired", func(t *testing.T) {
		snap := NewOrderSnapshot(&planID, &now, nil, now)
		assert.True(t, snap.WasExpired)
	})
}

func TestClassify(t *testing.T) {
	planA := uint(1)
	planB := uint(2)

	tests := []struct {
		name          string
		snap          *OrderSnapshot
		order         Order
		currentPlanID *uint
		want          Scenario
	}{
		{
			name:          "no prior plan is a new purchase",
			snap:          &OrderSnapshot{HadPlan: false},
			currentPlanID: &planA,
			want:          ScenarioNewPurchase,
		},
		{
			name:          "expired account repurchasing same plan",
			snap:          &OrderSnapshot{PlanID: &planA, HadPlan: true, WasExpired: true},
			currentPlanID: &planA,
			want:          ScenarioExpiredRepurchase,
		},
		{
			name:          "expired account buying a different plan is still a repurchase",
			snap:          &OrderSnapshot{PlanID: &planA, HadPlan: true, WasExpired: true},
			currentPlanID: &planB,
			want:          ScenarioExpiredRepurchase,
		},
		{
			name:          "active account switching plans",
			snap:          &OrderSnapshot{PlanID: &planA, HadPlan: true},
			currentPlanID: &planB,
			want:          ScenarioPlanChange,
		},
		{
			name:          "active account on the same plan renews",
			snap:          &OrderSnapshot{PlanID: &planA, HadPlan: true},
			currentPlanID: &planA,
			want:          ScenarioRenewal,
		},
		{
			name:          "nil snapshot falls back to renewal order type",
			order:         Order{Type: OrderTypeRenewal},
			currentPlanID: &planA,
			want:          ScenarioRenewal,
		},
		{
			name:          "nil snapshot falls back to upgrade order type",
			order:         Order{Type: OrderTypeUpgrade},
			currentPlanID: &planA,
			want:          ScenarioPlanChange,
		},
		{
			name:          "nil snapshot with unknown order type is a new purchase",
			order:         Order{Type: OrderType("gift")},
			currentPlanID: &planA,
			want:          ScenarioNewPurchase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.snap, tt.order, tt.currentPlanID))
		})
	}
}

func TestOrderPeriodMultiplier(t *testing.T) {
	tests := []struct {
		period OrderPeriod
		want   int
		known  bool
	}{
		{PeriodMonthly, 1, true},
		{PeriodQuarterly, 3, true},
		{PeriodHalfYearly, 6, true},
		{PeriodYearly, 12, true},
		{PeriodTwoYearly, 24, true},
		{PeriodThreeYearly, 36, true},
		{OrderPeriod("lifetime"), 1, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			got, known := tt.period.Multiplier()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
		})
	}
}
