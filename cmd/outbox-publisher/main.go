package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/wedplan-backend/pkg/bootstrap"
	"github.com/angelmondragon/wedplan-backend/pkg/metrics"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/registry"
	"github.com/angelmondragon/wedplan-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	proc := bootstrap.Start(ctx, "outbox-publisher")
	cfg, logg := proc.Config, proc.Logger

	dbClient := proc.Database(ctx)

	ps, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	proc.Must(ctx, "pubsub", err)
	proc.OnClose("pubsub", ps.Close)

	events, err := registry.NewEventRegistry(cfg.PubSub)
	proc.Must(ctx, "event registry", err)

	svc, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		PubSub:        ps,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      events,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	proc.Must(ctx, "outbox publisher", err)

	runCtx, stop := proc.Signals(ctx, map[string]any{"batch_size": svc.batchSize})
	defer stop()
	proc.Run(runCtx, svc.Run)
}
