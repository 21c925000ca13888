package subscriber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubscriber(t *testing.T) *Subscriber {
	t.Helper()
	planID := uint(1)
	now := time.Now().UTC()
	sub, err := ReconstructSubscriber(
		1, &planID, nil, nil, nil,
		100, 200, 1000,
		false, 1, now, now,
	)
	require.NoError(t, err)
	return sub
}

func TestReconstructSubscriber_Validation(t *testing.T) {
	now := time.Now().UTC()

	_, err := ReconstructSubscriber(0, nil, nil, nil, nil, 0, 0, 0, false, 1, now, now)
	assert.Error(t, err)

	zero := uint(0)
	_, err = ReconstructSubscriber(1, &zero, nil, nil, nil, 0, 0, 0, false, 1, now, now)
	assert.Error(t, err)
}

func TestSubscriber_ChangePlan(t *testing.T) {
	sub := testSubscriber(t)

	t.Run("same plan is a no-op", func(t *testing.T) {
		version := sub.Version()
		require.NoError(t, sub.ChangePlan(1))
		assert.Equal(t, version, sub.Version())
	})

	t.Run("different plan bumps the version", func(t *testing.T) {
		version := sub.Version()
		require.NoError(t, sub.ChangePlan(2))
		assert.Equal(t, uint(2), *sub.PlanID())
		assert.Equal(t, version+1, sub.Version())
	})

	t.Run("zero plan is rejected", func(t *testing.T) {
		assert.Error(t, sub.ChangePlan(0))
	})
}

func TestSubscriber_ApplyCycle(t *testing.T) {
	now := time.Now().UTC()

	t.Run("sets both fields", func(t *testing.T) {
		sub := testSubscriber(t)
		expired := now.AddDate(0, 1, 0)
		next := now.AddDate(0, 0, 7)
		require.NoError(t, sub.ApplyCycle(&expired, &next))
		assert.True(t, sub.ExpiredAt().Equal(expired))
		assert.True(t, sub.NextResetAt().Equal(next))
	})

	t.Run("rejects a reset scheduled after expiration", func(t *testing.T) {
		sub := testSubscriber(t)
		expired := now.AddDate(0, 0, 7)
		next := now.AddDate(0, 1, 0)
		assert.Error(t, sub.ApplyCycle(&expired, &next))
	})

	t.Run("reset equal to expiration is allowed", func(t *testing.T) {
		sub := testSubscriber(t)
		expired := now.AddDate(0, 0, 7)
		require.NoError(t, sub.ApplyCycle(&expired, &expired))
	})

	t.Run("nil values clear the fields", func(t *testing.T) {
		sub := testSubscriber(t)
		require.NoError(t, sub.ApplyCycle(nil, nil))
		assert.Nil(t, sub.ExpiredAt())
		assert.Nil(t, sub.NextResetAt())
	})
}

func TestSubscriber_RecordReset(t *testing.T) {
	sub := testSubscriber(t)
	now := time.Now().UTC()

	sub.RecordReset(now)

	assert.Zero(t, sub.UsedUpload())
	assert.Zero(t, sub.UsedDownload())
	require.NotNil(t, sub.LastResetAt())
	assert.True(t, sub.LastResetAt().Equal(now))
}

func TestSubscriber_TrafficExhausted(t *testing.T) {
	now := time.Now().UTC()
	planID := uint(1)

	build := func(used, quota uint64) *Subscriber {
		sub, err := ReconstructSubscriber(1, &planID, nil, nil, nil, used, 0, quota, false, 1, now, now)
		require.NoError(t, err)
		return sub
	}

	assert.True(t, build(99, 100).TrafficExhausted(0.99))
	assert.False(t, build(98, 100).TrafficExhausted(0.99))
	assert.True(t, build(100, 100).TrafficExhausted(0.99))
	assert.False(t, build(1000, 0).TrafficExhausted(0.99), "unmetered never exhausts")
}

func TestSubscriber_IsExpired(t *testing.T) {
	sub := testSubscriber(t)
	now := time.Now().UTC()

	assert.False(t, sub.IsExpired(now), "nil expiration never expires")

	past := now.AddDate(0, 0, -1)
	sub.SetExpiration(&past)
	assert.True(t, sub.IsExpired(now))

	future := now.AddDate(0, 0, 1)
	sub.SetExpiration(&future)
	assert.False(t, sub.IsExpired(now))
}

func TestSubscriber_ChangeDetection(t *testing.T) {
	sub := testSubscriber(t)
	now := time.Now().UTC()
	expired := now.AddDate(0, 1, 0)

	assert.True(t, sub.ExpirationMatches(nil))
	assert.False(t, sub.ExpirationMatches(&expired))

	sub.SetExpiration(&expired)
	same := expired
	assert.True(t, sub.ExpirationMatches(&same))
	assert.False(t, sub.ExpirationMatches(nil))

	next := now.AddDate(0, 0, 7)
	assert.True(t, sub.NextResetMatches(nil))
	sub.ScheduleReset(&next)
	assert.True(t, sub.NextResetMatches(&next))
}

func TestPlan_CarriesCycleTags(t *testing.T) {
	now := time.Now().UTC()

	withTags, err := ReconstructPlan(1, "basic", []string{"interval_days:7"}, "", "active", now, now)
	require.NoError(t, err)
	assert.True(t, withTags.CarriesCycleTags())

	without, err := ReconstructPlan(2, "basic", []string{"premium"}, "monthly_anniversary", "active", now, now)
	require.NoError(t, err)
	assert.False(t, without.CarriesCycleTags())

	_, err = ReconstructPlan(3, "basic", nil, "", "retired", now, now)
	assert.Error(t, err)
}
