package usecases

import (
	"context"
	"time"

	"vetiver/internal/domain/subscriber"
	"vetiver/internal/shared/logger"

	"github.com/stretchr/testify/mock"
)

type mockSubscriberRepository struct {
	mock.Mock
}

func (m *mockSubscriberRepository) GetByID(ctx context.Context, id uint) (*subscriber.Subscriber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriber.Subscriber), args.Error(1)
}

func (m *mockSubscriberRepository) Update(ctx context.Context, sub *subscriber.Subscriber) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriberRepository) ListByPlanID(ctx context.Context, planID uint, afterID uint, limit int) ([]*subscriber.Subscriber, error) {
	args := m.Called(ctx, planID, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscriber.Subscriber), args.Error(1)
}

func (m *mockSubscriberRepository) ListExhaustedCandidates(ctx context.Context, threshold float64, afterID uint, limit int) ([]*subscriber.Subscriber, error) {
	args := m.Called(ctx, threshold, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscriber.Subscriber), args.Error(1)
}

func (m *mockSubscriberRepository) ListActiveWithPlan(ctx context.Context, now time.Time, afterID uint, limit int) ([]*subscriber.Subscriber, error) {
	args := m.Called(ctx, now, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscriber.Subscriber), args.Error(1)
}

type mockPlanRepository struct {
	mock.Mock
}

func (m *mockPlanRepository) GetByID(ctx context.Context, id uint) (*subscriber.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriber.Plan), args.Error(1)
}

func (m *mockPlanRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]*subscriber.Plan, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscriber.Plan), args.Error(1)
}

type mockCheckpointRepository struct {
	mock.Mock
}

func (m *mockCheckpointRepository) Get(ctx context.Context, name string) (time.Time, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockCheckpointRepository) Advance(ctx context.Context, name string, sweptAt time.Time) error {
	args := m.Called(ctx, name, sweptAt)
	return args.Error(0)
}

type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Create(ctx context.Context, entry *subscriber.CycleAuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type mockTrafficResetter struct {
	mock.Mock
}

func (m *mockTrafficResetter) PerformReset(ctx context.Context, sub *subscriber.Subscriber, source string) error {
	args := m.Called(ctx, sub, source)
	return args.Error(0)
}

// fakeTxRunner runs the function directly; the real transaction semantics are
// exercised against the database, not here.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// stubLogger discards everything so tests don't have to enumerate log calls.
type stubLogger struct{}

func (stubLogger) Debug(msg string, args ...any)                   {}
func (stubLogger) Info(msg string, args ...any)                    {}
func (stubLogger) Warn(msg string, args ...any)                    {}
func (stubLogger) Error(msg string, args ...any)                   {}
func (s stubLogger) With(args ...any) logger.Interface             { return s }
func (s stubLogger) Named(name string) logger.Interface            { return s }
func (stubLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (stubLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (stubLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (stubLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (stubLogger) Fatalw(msg string, keysAndValues ...interface{}) {}
