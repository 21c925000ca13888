// Package lock provides a Redis-backed mutual exclusion guard for scheduled
// batch jobs, so at most one instance runs a given job type at a time across
// all processes.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vetiver/internal/shared/biztime"
	"vetiver/internal/shared/logger"
)

const lockKeyPrefix = "cycle:joblock:"

// JobGuard serializes batch job runs via a named Redis lock. A held lock means
// another instance is mid-run: the invocation is skipped, not queued. The TTL
// bounds a stuck run; after it expires a future tick may proceed.
type JobGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

func NewJobGuard(client *redis.Client, ttl time.Duration, logger logger.Interface) *JobGuard {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &JobGuard{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Run executes fn under the named lock. Contention is not an error: the run
// is skipped and logged at info level.
func (g *JobGuard) Run(ctx context.Context, jobName string, fn func(ctx context.Context) error) error {
	token := fmt.Sprintf("%d", biztime.NowUTC().UnixNano())

	acquired, err := g.acquire(ctx, jobName, token)
	if err != nil {
		return fmt.Errorf("failed to acquire job lock: %w", err)
	}
	if !acquired {
		g.logger.Infow("job lock held by another instance, skipping run", "job", jobName)
		return nil
	}
	defer g.release(jobName, token)

	return fn(ctx)
}

func (g *JobGuard) acquire(ctx context.Context, jobName, token string) (bool, error) {
	return g.client.SetNX(ctx, g.key(jobName), token, g.ttl).Result()
}

// release deletes the lock only if this run still owns it, so a run that
// outlived the TTL cannot release a lock reacquired by another instance.
func (g *JobGuard) release(jobName, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const script = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`
	if err := g.client.Eval(ctx, script, []string{g.key(jobName)}, token).Err(); err != nil {
		g.logger.Warnw("failed to release job lock", "job", jobName, "error", err)
	}
}

func (g *JobGuard) key(jobName string) string {
	return lockKeyPrefix + jobName
}
