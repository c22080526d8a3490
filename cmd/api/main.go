package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/wedplan-backend/api/controllers"
	"github.com/angelmondragon/wedplan-backend/api/routes"
	"github.com/angelmondragon/wedplan-backend/pkg/bigquery"
	"github.com/angelmondragon/wedplan-backend/pkg/bootstrap"
	"github.com/angelmondragon/wedplan-backend/pkg/env"
	"github.com/angelmondragon/wedplan-backend/pkg/metrics"
	"github.com/angelmondragon/wedplan-backend/pkg/redis"
	"github.com/angelmondragon/wedplan-backend/pkg/storage/gcs"
	"github.com/angelmondragon/wedplan-backend/pkg/stripe"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	ctx := context.Background()
	proc := bootstrap.Start(ctx, "api")
	cfg, logg := proc.Config, proc.Logger

	dbClient := proc.Database(ctx)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	proc.Must(ctx, "redis", err)
	proc.OnClose("redis", redisClient.Close)

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	proc.Must(ctx, "stripe", err)

	pingers := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}

	var store *gcs.Client
	if !cfg.FeatureFlags.SkipAgreements {
		store, err = gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		proc.Must(ctx, "gcs", err)
		proc.OnClose("gcs", store.Close)
		pingers["gcs"] = store
	}

	if cfg.BigQuery.Dataset != "" && !cfg.FeatureFlags.UseSQLite {
		bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		proc.Must(ctx, "bigquery", err)
		proc.OnClose("bigquery", bq.Close)
		pingers["bigquery"] = bq
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := buildApp(appParams{
		Config:  cfg,
		Logger:  logg,
		DB:      dbClient,
		Redis:   redisClient,
		Stripe:  stripeClient,
		GCS:     store,
		Metrics: metrics.NewFinalizationMetrics(registry),
	})
	proc.Must(ctx, "application services", err)

	server := &http.Server{
		Addr:              ":" + env.Get("PORT", cfg.App.Port),
		ReadHeaderTimeout: readHeaderTimeout,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			Pingers:        pingers,
			Idempotency:    redisClient,
			Gatherer:       registry,
			Billing:        app.bookings,
			Checkout:       app.bookings,
			Confirm:        app.confirmer,
			StripeWebhook:  app.webhook,
			StripeVerifier: stripeClient,
			StripeGuard:    app.webhookGuard,
		}),
	}

	runCtx, stop := proc.Signals(ctx, map[string]any{
		"addr":       server.Addr,
		"stripe_env": stripeClient.Environment(),
	})
	defer stop()
	proc.Run(runCtx, func(ctx context.Context) error {
		return serve(ctx, server)
	})
}

// serve runs the server until ctx ends, then drains in-flight requests.
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
