// Package worker wires the cycle engine's scheduled jobs into a long-running
// process.
package worker

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"vetiver/internal/application/cycle/usecases"
	"vetiver/internal/infrastructure/cache"
	"vetiver/internal/infrastructure/config"
	"vetiver/internal/infrastructure/database"
	"vetiver/internal/infrastructure/lock"
	"vetiver/internal/infrastructure/migration"
	"vetiver/internal/infrastructure/repository"
	"vetiver/internal/infrastructure/scheduler"
	"vetiver/internal/infrastructure/trafficservice"
	"vetiver/internal/shared/biztime"
	"vetiver/internal/shared/db"
	"vetiver/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start the cycle worker",
		Long:  `Start the subscription cycle worker running the scheduled sweep and early-reset jobs.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting cycle worker", "environment", env, "auto_migrate", autoMigrate)

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		manager := migration.NewManager(env)
		if err := manager.Migrate(database.Get(), migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	subscriberRepo := repository.NewSubscriberRepository(database.Get(), log)
	planRepo := repository.NewPlanRepository(database.Get(), log)
	checkpointRepo := repository.NewSweepCheckpointRepository(database.Get(), log)
	auditRepo := repository.NewCycleAuditLogRepository(database.Get(), log)

	txMgr := db.NewTransactionManager(database.Get())
	resetter := trafficservice.NewResetter(auditRepo, log)

	tagChangeSweep := usecases.NewTagChangeSweepJob(
		subscriberRepo, planRepo, checkpointRepo, auditRepo, txMgr, &cfg.Cycle, log)
	driftSweep := usecases.NewDriftCorrectionSweepJob(
		subscriberRepo, planRepo, auditRepo, txMgr, &cfg.Cycle, log)
	earlyReset := usecases.NewEarlyResetTriggerJob(
		subscriberRepo, planRepo, auditRepo, resetter, txMgr, &cfg.Cycle, log)

	guard := lock.NewJobGuard(redisClient, time.Duration(cfg.Cycle.LockTTLMinutes)*time.Minute, log)
	runStore := cache.NewJobRunStore(redisClient)

	schedulerMgr, err := scheduler.NewSchedulerManager(guard, runStore, log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := schedulerMgr.RegisterCycleJobs(&cfg.Cycle, tagChangeSweep, driftSweep, earlyReset); err != nil {
		return fmt.Errorf("failed to register cycle jobs: %w", err)
	}

	schedulerMgr.Start()
	log.Infow("cycle worker started",
		"sync_interval_minutes", cfg.Cycle.SyncIntervalMinutes,
		"check_interval_minutes", cfg.Cycle.CheckIntervalMinutes)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Infow("received signal, shutting down", "signal", sig)

	if err := schedulerMgr.Stop(); err != nil {
		log.Errorw("failed to stop scheduler cleanly", "error", err)
	}

	log.Infow("cycle worker stopped")
	return nil
}
