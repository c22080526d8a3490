package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/wedplan-backend/internal/agreements"
	"github.com/angelmondragon/wedplan-backend/internal/bookings"
	"github.com/angelmondragon/wedplan-backend/internal/finalization"
	"github.com/angelmondragon/wedplan-backend/internal/notifications"
	"github.com/angelmondragon/wedplan-backend/pkg/bootstrap"
	"github.com/angelmondragon/wedplan-backend/pkg/metrics"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/wedplan-backend/pkg/pubsub"
	"github.com/angelmondragon/wedplan-backend/pkg/redis"
	"github.com/angelmondragon/wedplan-backend/pkg/sendgrid"
	"github.com/angelmondragon/wedplan-backend/pkg/storage/gcs"
)

func main() {
	ctx := context.Background()
	proc := bootstrap.Start(ctx, "worker")
	cfg, logg := proc.Config, proc.Logger

	dbClient := proc.Database(ctx)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	proc.Must(ctx, "redis", err)
	proc.OnClose("redis", redisClient.Close)

	ps, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	proc.Must(ctx, "pubsub", err)
	proc.OnClose("pubsub", ps.Close)

	deps := []dependency{
		{name: "database", ping: dbClient.Ping},
		{name: "redis", ping: redisClient.Ping},
		{name: "pubsub", ping: ps.Ping},
	}

	// agreements stay nil when the feature is off; the handler skips that step.
	var agreementGen finalization.AgreementGenerator
	if !cfg.FeatureFlags.SkipAgreements {
		store, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		proc.Must(ctx, "gcs", err)
		proc.OnClose("gcs", store.Close)
		deps = append(deps, dependency{name: "gcs", ping: store.Ping})

		svc, err := agreements.NewService(agreements.NewRepository(dbClient.DB()), store, cfg.GCS.BucketName, cfg.GCS.AgreementPrefix, logg)
		proc.Must(ctx, "agreement service", err)
		agreementGen = svc
	}

	mail, err := sendgrid.NewClient(cfg.Sendgrid, logg)
	proc.Must(ctx, "sendgrid", err)
	notifier, err := notifications.NewService(mail, cfg.Sendgrid.OperatorEmail, logg)
	proc.Must(ctx, "notification service", err)

	handler, err := finalization.NewRetryHandler(
		bookings.NewRepository(dbClient.DB()),
		bookings.NewSnapshotRepository(dbClient.DB()),
		agreementGen,
		notifier,
		metrics.NewFinalizationMetrics(prometheus.DefaultRegisterer),
	)
	proc.Must(ctx, "retry handler", err)

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	proc.Must(ctx, "idempotency manager", err)

	retries, err := finalization.NewRetryConsumer(ps.FinalizationSubscription(), manager, handler, logg)
	proc.Must(ctx, "finalization retry consumer", err)

	svc, err := NewService(ServiceParams{
		Logger:       logg,
		Dependencies: deps,
		Consumers:    map[string]runner{"finalization-retries": retries},
	})
	proc.Must(ctx, "worker service", err)

	runCtx, stop := proc.Signals(ctx, map[string]any{"agreements": agreementGen != nil})
	defer stop()
	proc.Run(runCtx, svc.Run)
}
