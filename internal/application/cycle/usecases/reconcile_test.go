package usecases

import (
	"context"
	"testing"
	"time"

	"vetiver/internal/domain/subscriber"
	"vetiver/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTagSweep(subRepo *mockSubscriberRepository, planRepo *mockPlanRepository, checkpointRepo *mockCheckpointRepository, auditRepo *mockAuditLogRepository, cfg *config.CycleConfig) *TagChangeSweepJob {
	return NewTagChangeSweepJob(subRepo, planRepo, checkpointRepo, auditRepo, fakeTxRunner{}, cfg, stubLogger{})
}

func newDriftSweep(subRepo *mockSubscriberRepository, planRepo *mockPlanRepository, auditRepo *mockAuditLogRepository, cfg *config.CycleConfig) *DriftCorrectionSweepJob {
	return NewDriftCorrectionSweepJob(subRepo, planRepo, auditRepo, fakeTxRunner{}, cfg, stubLogger{})
}

func TestTagChangeSweep_RealignsSubscribersAndAdvancesCheckpoint(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	checkpointRepo := new(mockCheckpointRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	lastReset := now.AddDate(0, 0, -25)
	staleNext := now.AddDate(0, 0, -15)

	plan := buildPlan(t, 42, []string{"interval_days:10"}, "")
	sub := buildSubscriber(t, 1, uintPtr(42), nil, timePtr(staleNext), timePtr(lastReset), 0, 0)

	checkpointRepo.On("Get", mock.Anything, "plan_tag_sweep").Return(time.Time{}, nil)
	planRepo.On("ListUpdatedSince", mock.Anything, time.Time{}).Return([]*subscriber.Plan{plan}, nil)
	subRepo.On("ListByPlanID", mock.Anything, uint(42), uint(0), 100).
		Return([]*subscriber.Subscriber{sub}, nil)
	subRepo.On("Update", mock.Anything, sub).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*subscriber.CycleAuditLog")).Return(nil)
	checkpointRepo.On("Advance", mock.Anything, "plan_tag_sweep", mock.AnythingOfType("time.Time")).Return(nil)

	cfg := baseCycleConfig()
	cfg.EnableExpiredAtCalculation = false
	job := newTagSweep(subRepo, planRepo, checkpointRepo, auditRepo, cfg)

	count, err := job.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	// Whole intervals advance from the last reset until the schedule is in
	// the future: -25d + 3*10d = +5d.
	assert.NotNil(t, sub.NextResetAt())
	assert.True(t, sub.NextResetAt().Equal(lastReset.AddDate(0, 0, 30)))

	checkpointRepo.AssertExpectations(t)
	subRepo.AssertExpectations(t)
}

func TestTagChangeSweep_SecondRunWritesNothing(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	checkpointRepo := new(mockCheckpointRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	lastReset := now.AddDate(0, 0, -25)
	alignedNext := lastReset.AddDate(0, 0, 30)

	plan := buildPlan(t, 42, []string{"interval_days:10"}, "")
	sub := buildSubscriber(t, 1, uintPtr(42), nil, timePtr(alignedNext), timePtr(lastReset), 0, 0)

	checkpointRepo.On("Get", mock.Anything, "plan_tag_sweep").Return(time.Time{}, nil)
	planRepo.On("ListUpdatedSince", mock.Anything, time.Time{}).Return([]*subscriber.Plan{plan}, nil)
	subRepo.On("ListByPlanID", mock.Anything, uint(42), uint(0), 100).
		Return([]*subscriber.Subscriber{sub}, nil)
	checkpointRepo.On("Advance", mock.Anything, "plan_tag_sweep", mock.AnythingOfType("time.Time")).Return(nil)

	cfg := baseCycleConfig()
	cfg.EnableExpiredAtCalculation = false
	job := newTagSweep(subRepo, planRepo, checkpointRepo, auditRepo, cfg)

	count, err := job.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	subRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	auditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTagChangeSweep_SkipsPlansWithoutCycleTags(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	checkpointRepo := new(mockCheckpointRepository)
	auditRepo := new(mockAuditLogRepository)

	plan := buildPlan(t, 42, []string{"region:eu"}, "monthly_anniversary")

	checkpointRepo.On("Get", mock.Anything, "plan_tag_sweep").Return(time.Time{}, nil)
	planRepo.On("ListUpdatedSince", mock.Anything, time.Time{}).Return([]*subscriber.Plan{plan}, nil)
	checkpointRepo.On("Advance", mock.Anything, "plan_tag_sweep", mock.AnythingOfType("time.Time")).Return(nil)

	job := newTagSweep(subRepo, planRepo, checkpointRepo, auditRepo, baseCycleConfig())

	count, err := job.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	subRepo.AssertNotCalled(t, "ListByPlanID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTagChangeSweep_KeepsCheckpointOnFailure(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	checkpointRepo := new(mockCheckpointRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	lastReset := now.AddDate(0, 0, -25)
	staleNext := now.AddDate(0, 0, -15)

	plan := buildPlan(t, 42, []string{"interval_days:10"}, "")
	sub := buildSubscriber(t, 1, uintPtr(42), nil, timePtr(staleNext), timePtr(lastReset), 0, 0)

	checkpointRepo.On("Get", mock.Anything, "plan_tag_sweep").Return(time.Time{}, nil)
	planRepo.On("ListUpdatedSince", mock.Anything, time.Time{}).Return([]*subscriber.Plan{plan}, nil)
	subRepo.On("ListByPlanID", mock.Anything, uint(42), uint(0), 100).
		Return([]*subscriber.Subscriber{sub}, nil)
	subRepo.On("Update", mock.Anything, sub).Return(assert.AnError)

	cfg := baseCycleConfig()
	cfg.EnableExpiredAtCalculation = false
	job := newTagSweep(subRepo, planRepo, checkpointRepo, auditRepo, cfg)

	count, err := job.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	// A failed pass must be retried in full next run.
	checkpointRepo.AssertNotCalled(t, "Advance", mock.Anything, mock.Anything, mock.Anything)
}

func TestDriftSweep_CorrectsDriftedSchedule(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	lastReset := now.AddDate(0, 0, -25)
	staleNext := now.AddDate(0, 0, -15)

	plan := buildPlan(t, 42, []string{"interval_days:10"}, "")
	sub := buildSubscriber(t, 1, uintPtr(42), nil, timePtr(staleNext), timePtr(lastReset), 0, 0)

	subRepo.On("ListActiveWithPlan", mock.Anything, mock.AnythingOfType("time.Time"), uint(0), 100).
		Return([]*subscriber.Subscriber{sub}, nil)
	planRepo.On("GetByID", mock.Anything, uint(42)).Return(plan, nil)
	subRepo.On("Update", mock.Anything, sub).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*subscriber.CycleAuditLog")).Return(nil)

	job := newDriftSweep(subRepo, planRepo, auditRepo, baseCycleConfig())

	count, err := job.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NotNil(t, sub.NextResetAt())
	assert.True(t, sub.NextResetAt().Equal(lastReset.AddDate(0, 0, 30)))

	subRepo.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
}

func TestDriftSweep_SecondRunWritesNothing(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	lastReset := now.AddDate(0, 0, -25)
	alignedNext := lastReset.AddDate(0, 0, 30)

	plan := buildPlan(t, 42, []string{"interval_days:10"}, "")
	sub := buildSubscriber(t, 1, uintPtr(42), nil, timePtr(alignedNext), timePtr(lastReset), 0, 0)

	subRepo.On("ListActiveWithPlan", mock.Anything, mock.AnythingOfType("time.Time"), uint(0), 100).
		Return([]*subscriber.Subscriber{sub}, nil)
	planRepo.On("GetByID", mock.Anything, uint(42)).Return(plan, nil)

	job := newDriftSweep(subRepo, planRepo, auditRepo, baseCycleConfig())

	count, err := job.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	subRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDriftSweep_ToleratesSmallDrift(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	lastReset := now.AddDate(0, 0, -25)
	// One hour off the derived value, inside the 24h tolerance.
	slightlyOff := lastReset.AddDate(0, 0, 30).Add(time.Hour)

	plan := buildPlan(t, 42, []string{"interval_days:10"}, "")
	sub := buildSubscriber(t, 1, uintPtr(42), nil, timePtr(slightlyOff), timePtr(lastReset), 0, 0)

	subRepo.On("ListActiveWithPlan", mock.Anything, mock.AnythingOfType("time.Time"), uint(0), 100).
		Return([]*subscriber.Subscriber{sub}, nil)
	planRepo.On("GetByID", mock.Anything, uint(42)).Return(plan, nil)

	job := newDriftSweep(subRepo, planRepo, auditRepo, baseCycleConfig())

	count, err := job.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	subRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDriftSweep_SchedulesMissingResetFromStoredSchedule(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	// No last reset recorded; the base is back-derived from the stored value.
	staleNext := now.AddDate(0, 0, -15)

	plan := buildPlan(t, 42, []string{"interval_days:10"}, "")
	sub := buildSubscriber(t, 1, uintPtr(42), nil, timePtr(staleNext), nil, 0, 0)

	subRepo.On("ListActiveWithPlan", mock.Anything, mock.AnythingOfType("time.Time"), uint(0), 100).
		Return([]*subscriber.Subscriber{sub}, nil)
	planRepo.On("GetByID", mock.Anything, uint(42)).Return(plan, nil)
	subRepo.On("Update", mock.Anything, sub).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*subscriber.CycleAuditLog")).Return(nil)

	job := newDriftSweep(subRepo, planRepo, auditRepo, baseCycleConfig())

	count, err := job.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	// Base -25d, advanced by 10-day intervals to the first future value: +5d.
	assert.NotNil(t, sub.NextResetAt())
	assert.True(t, sub.NextResetAt().Equal(staleNext.AddDate(0, 0, 20)))
}

func TestDriftSweep_SkipsStructuredPolicies(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	staleNext := now.AddDate(0, 0, -15)

	plan := buildPlan(t, 42, nil, "monthly_anniversary")
	sub := buildSubscriber(t, 1, uintPtr(42), nil, timePtr(staleNext), nil, 0, 0)

	subRepo.On("ListActiveWithPlan", mock.Anything, mock.AnythingOfType("time.Time"), uint(0), 100).
		Return([]*subscriber.Subscriber{sub}, nil)
	planRepo.On("GetByID", mock.Anything, uint(42)).Return(plan, nil)

	job := newDriftSweep(subRepo, planRepo, auditRepo, baseCycleConfig())

	count, err := job.Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	subRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
