package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetiver/internal/shared/logger"
)

type passthroughGuard struct{}

func (passthroughGuard) Run(ctx context.Context, jobName string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRunRecorder struct {
	last    time.Time
	lastErr error
	marked  []time.Time
}

func (r *fakeRunRecorder) LastRun(ctx context.Context, jobName string) (time.Time, error) {
	return r.last, r.lastErr
}

func (r *fakeRunRecorder) MarkRun(ctx context.Context, jobName string, at time.Time) error {
	r.marked = append(r.marked, at)
	return nil
}

type countingJob struct {
	runs int
}

func (j *countingJob) Execute(ctx context.Context) (int, error) {
	j.runs++
	return 1, nil
}

func newTestManager(t *testing.T, recorder RunRecorder) *SchedulerManager {
	t.Helper()
	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m, err := NewSchedulerManager(passthroughGuard{}, recorder, log)
	require.NoError(t, err)
	return m
}

func TestRunGuarded_SkipsWhenLastRunWithinCadence(t *testing.T) {
	recorder := &fakeRunRecorder{last: time.Now().UTC().Add(-2 * time.Minute)}
	job := &countingJob{}
	m := newTestManager(t, recorder)

	// A restart two minutes into a thirty-minute cadence must not re-run.
	m.runGuarded(context.Background(), "cycle-drift-sweep", 30*time.Minute, job)

	assert.Equal(t, 0, job.runs)
	assert.Empty(t, recorder.marked)
}

func TestRunGuarded_RunsWhenCadenceElapsed(t *testing.T) {
	recorder := &fakeRunRecorder{last: time.Now().UTC().Add(-31 * time.Minute)}
	job := &countingJob{}
	m := newTestManager(t, recorder)

	before := time.Now().UTC()
	m.runGuarded(context.Background(), "cycle-drift-sweep", 30*time.Minute, job)

	assert.Equal(t, 1, job.runs)
	require.Len(t, recorder.marked, 1)
	assert.WithinDuration(t, before, recorder.marked[0], 2*time.Second)
}

func TestRunGuarded_RunsOnFirstEverExecution(t *testing.T) {
	recorder := &fakeRunRecorder{}
	job := &countingJob{}
	m := newTestManager(t, recorder)

	m.runGuarded(context.Background(), "cycle-tag-change-sweep", 30*time.Minute, job)

	assert.Equal(t, 1, job.runs)
	assert.Len(t, recorder.marked, 1)
}

func TestRunGuarded_RunsDespiteRecorderReadFailure(t *testing.T) {
	recorder := &fakeRunRecorder{lastErr: assert.AnError}
	job := &countingJob{}
	m := newTestManager(t, recorder)

	// The cache is advisory. A Redis hiccup must not stall the sweeps.
	m.runGuarded(context.Background(), "cycle-early-reset", 30*time.Minute, job)

	assert.Equal(t, 1, job.runs)
}

func TestRunGuarded_SteadyStateTickIsNotSkipped(t *testing.T) {
	// The previous tick fired one cadence ago minus a few seconds of jitter.
	recorder := &fakeRunRecorder{last: time.Now().UTC().Add(-30*time.Minute + 10*time.Second)}
	job := &countingJob{}
	m := newTestManager(t, recorder)

	m.runGuarded(context.Background(), "cycle-drift-sweep", 30*time.Minute, job)

	assert.Equal(t, 1, job.runs)
}
