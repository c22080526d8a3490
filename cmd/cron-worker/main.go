package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/wedplan-backend/internal/bookings"
	"github.com/angelmondragon/wedplan-backend/internal/cron"
	"github.com/angelmondragon/wedplan-backend/pkg/bootstrap"
	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/metrics"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
	"github.com/angelmondragon/wedplan-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	proc := bootstrap.Start(ctx, "cron-worker")
	cfg, logg := proc.Config, proc.Logger

	dbClient := proc.Database(ctx)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	proc.Must(ctx, "redis", err)
	proc.OnClose("redis", redisClient.Close)

	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), 0)
	proc.Must(ctx, "cron lock", err)

	jobs, err := jobRegistry(cfg, logg, dbClient, jobMetrics)
	proc.Must(ctx, "cron jobs", err)

	svc, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  jobMetrics,
	})
	proc.Must(ctx, "cron service", err)

	runCtx, stop := proc.Signals(ctx, map[string]any{"jobs": len(jobs.Jobs())})
	defer stop()
	proc.Run(runCtx, svc.Run)
}

func jobRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, m *metrics.CronJobMetrics) (*cron.Registry, error) {
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outbox.NewRepository(dbClient.DB()),
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}

	unresolved, err := cron.NewUnresolvedPlansJob(cron.UnresolvedPlansJobParams{
		Logger:    logg,
		Snapshots: bookings.NewSnapshotRepository(dbClient.DB()),
		Metrics:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("unresolved plans job: %w", err)
	}

	return cron.NewRegistry(retention, unresolved)
}
