// Package cache provides Redis-backed auxiliary state for the worker.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const jobRunKeyPrefix = "cycle:lastrun:"

// JobRunStore persists each batch job's last run instant across restarts,
// for operator visibility and restart-safe cadence decisions.
type JobRunStore struct {
	client *redis.Client
}

// NewJobRunStore creates a new JobRunStore instance.
func NewJobRunStore(client *redis.Client) *JobRunStore {
	return &JobRunStore{client: client}
}

// LastRun returns the last recorded run instant for the job, or the zero
// time if none was recorded.
func (s *JobRunStore) LastRun(ctx context.Context, jobName string) (time.Time, error) {
	val, err := s.client.Get(ctx, jobRunKeyPrefix+jobName).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get last run: %w", err)
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last run: %w", err)
	}

	return time.Unix(unix, 0).UTC(), nil
}

// MarkRun records a completed run that started at the given instant.
func (s *JobRunStore) MarkRun(ctx context.Context, jobName string, at time.Time) error {
	val := strconv.FormatInt(at.Unix(), 10)
	if err := s.client.Set(ctx, jobRunKeyPrefix+jobName, val, 0).Err(); err != nil {
		return fmt.Errorf("failed to mark job run: %w", err)
	}
	return nil
}
