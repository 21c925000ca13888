package usecases

import (
	"context"
	"testing"
	"time"

	"vetiver/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newSyncUseCase(subRepo *mockSubscriberRepository, planRepo *mockPlanRepository, auditRepo *mockAuditLogRepository, cfg *config.CycleConfig) *SyncTrafficResetUseCase {
	return NewSyncTrafficResetUseCase(subRepo, planRepo, auditRepo, fakeTxRunner{}, cfg, stubLogger{})
}

func TestSyncTrafficReset_ClampsToExpiration(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	expired := now.AddDate(0, 0, 10)

	sub := buildSubscriber(t, 1, uintPtr(42), timePtr(expired), nil, nil, 0, 0)
	plan := buildPlan(t, 42, []string{"interval_days:30"}, "")

	subRepo.On("GetByID", mock.Anything, uint(1)).Return(sub, nil)
	planRepo.On("GetByID", mock.Anything, uint(42)).Return(plan, nil)
	subRepo.On("Update", mock.Anything, sub).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*subscriber.CycleAuditLog")).Return(nil)

	uc := newSyncUseCase(subRepo, planRepo, auditRepo, baseCycleConfig())

	err := uc.Execute(context.Background(), 1)
	assert.NoError(t, err)

	// now + 30 days overshoots expiration, so the schedule lands exactly on it.
	assert.NotNil(t, sub.NextResetAt())
	assert.True(t, sub.NextResetAt().Equal(expired))

	subRepo.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
}

func TestSyncTrafficReset_IdempotentWhenScheduleAlreadyCorrect(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	expired := now.AddDate(0, 0, 10)

	// The clamped candidate equals the stored schedule, so nothing is written.
	sub := buildSubscriber(t, 1, uintPtr(42), timePtr(expired), timePtr(expired), nil, 0, 0)
	plan := buildPlan(t, 42, []string{"interval_days:30"}, "")

	subRepo.On("GetByID", mock.Anything, uint(1)).Return(sub, nil)
	planRepo.On("GetByID", mock.Anything, uint(42)).Return(plan, nil)

	uc := newSyncUseCase(subRepo, planRepo, auditRepo, baseCycleConfig())

	err := uc.Execute(context.Background(), 1)
	assert.NoError(t, err)

	subRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	auditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSyncTrafficReset_StructuredPolicyIsNoOp(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	auditRepo := new(mockAuditLogRepository)

	now := time.Now().UTC()
	next := now.AddDate(0, 0, 5)

	sub := buildSubscriber(t, 1, uintPtr(42), nil, timePtr(next), nil, 0, 0)
	plan := buildPlan(t, 42, nil, "monthly_anniversary")

	subRepo.On("GetByID", mock.Anything, uint(1)).Return(sub, nil)
	planRepo.On("GetByID", mock.Anything, uint(42)).Return(plan, nil)

	uc := newSyncUseCase(subRepo, planRepo, auditRepo, baseCycleConfig())

	err := uc.Execute(context.Background(), 1)
	assert.NoError(t, err)

	assert.True(t, sub.NextResetAt().Equal(next))
	subRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSyncTrafficReset_NoPlanIsNoOp(t *testing.T) {
	subRepo := new(mockSubscriberRepository)
	planRepo := new(mockPlanRepository)
	auditRepo := new(mockAuditLogRepository)

	sub := buildSubscriber(t, 1, nil, nil, nil, nil, 0, 0)
	subRepo.On("GetByID", mock.Anything, uint(1)).Return(sub, nil)

	uc := newSyncUseCase(subRepo, planRepo, auditRepo, baseCycleConfig())

	err := uc.Execute(context.Background(), 1)
	assert.NoError(t, err)

	planRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
