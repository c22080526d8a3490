package main

import (
	"context"
	"errors"

	"github.com/angelmondragon/wedplan-backend/internal/analytics/router"
	"github.com/angelmondragon/wedplan-backend/internal/analytics/worker"
	"github.com/angelmondragon/wedplan-backend/internal/analytics/writer"
	"github.com/angelmondragon/wedplan-backend/pkg/bigquery"
	"github.com/angelmondragon/wedplan-backend/pkg/bootstrap"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/wedplan-backend/pkg/pubsub"
	"github.com/angelmondragon/wedplan-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	proc := bootstrap.Start(ctx, "analytics-worker")
	cfg, logg := proc.Config, proc.Logger

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	proc.Must(ctx, "redis", err)
	proc.OnClose("redis", redisClient.Close)

	ps, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	proc.Must(ctx, "pubsub", err)
	proc.OnClose("pubsub", ps.Close)

	bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	proc.Must(ctx, "bigquery", err)
	proc.OnClose("bigquery", bq.Close)

	tables := writer.Config{BillingPlanTable: cfg.BigQuery.BillingPlanTable}
	if cfg.FeatureFlags.AutoMigrate {
		proc.Must(ctx, "bigquery tables", provisionTables(ctx, logg, bq, tables))
	}
	proc.Must(ctx, "bigquery dataset", bq.Ping(ctx))

	sub := ps.BillingSubscription()
	if sub == nil {
		proc.Must(ctx, "billing subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	proc.Must(ctx, "idempotency manager", err)

	rows, err := writer.New(bq, tables)
	proc.Must(ctx, "billing plan writer", err)

	routes, err := router.NewRouter(rows, logg, nil)
	proc.Must(ctx, "analytics router", err)

	svc, err := worker.NewService(sub, routes, manager, logg)
	proc.Must(ctx, "analytics worker", err)

	runCtx, stop := proc.Signals(ctx, map[string]any{"table": cfg.BigQuery.BillingPlanTable})
	defer stop()
	proc.Run(runCtx, svc.Run)
}

// provisionTables creates missing tables in environments that run with
// auto-migrate.
func provisionTables(ctx context.Context, logg *logger.Logger, client *bigquery.Client, cfg writer.Config) error {
	specs, err := writer.Tables(cfg)
	if err != nil {
		return err
	}
	created, err := client.EnsureTables(ctx, specs...)
	if len(created) > 0 {
		logg.Info(logg.WithField(ctx, "tables", created), "bigquery tables created")
	}
	return err
}
