package main

import (
	"fmt"

	"github.com/angelmondragon/wedplan-backend/internal/agreements"
	"github.com/angelmondragon/wedplan-backend/internal/billing"
	"github.com/angelmondragon/wedplan-backend/internal/bookings"
	"github.com/angelmondragon/wedplan-backend/internal/finalization"
	"github.com/angelmondragon/wedplan-backend/internal/ledger"
	"github.com/angelmondragon/wedplan-backend/internal/notifications"
	stripewebhook "github.com/angelmondragon/wedplan-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/metrics"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/wedplan-backend/pkg/redis"
	"github.com/angelmondragon/wedplan-backend/pkg/sendgrid"
	"github.com/angelmondragon/wedplan-backend/pkg/storage/gcs"
	"github.com/angelmondragon/wedplan-backend/pkg/stripe"
)

type appParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	Stripe  *stripe.Client
	GCS     *gcs.Client
	Metrics *metrics.FinalizationMetrics
}

type app struct {
	bookings     *bookings.Service
	confirmer    *finalization.Confirmer
	webhook      *stripewebhook.Service
	webhookGuard *stripewebhook.IdempotencyGuard
}

// buildApp wires the booking and finalization graph. A nil GCS client leaves
// agreement rendering disabled.
func buildApp(p appParams) (*app, error) {
	cfg, logg := p.Config, p.Logger
	gormDB := p.DB.DB()

	bookingRepo := bookings.NewRepository(gormDB)
	snapshotRepo := bookings.NewSnapshotRepository(gormDB)
	gateway := bookings.NewStripeGateway(p.Stripe)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	bookingSvc, err := bookings.NewService(bookings.ServiceParams{
		DB:        p.DB,
		Bookings:  bookingRepo,
		Snapshots: snapshotRepo,
		Catalog:   billing.NewCatalog(cfg.Billing),
		Gateway:   gateway,
		Outbox:    outboxSvc,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("booking service: %w", err)
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(gormDB))
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}

	persister, err := finalization.NewPersister(finalization.PersisterParams{
		DB:        p.DB,
		Processed: finalization.NewProcessedPaymentRepository(gormDB),
		Bookings:  bookingRepo,
		Snapshots: snapshotRepo,
		Ledger:    ledgerSvc,
		Outbox:    outboxSvc,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("finalization persister: %w", err)
	}

	var agreementGen finalization.AgreementGenerator
	if p.GCS != nil {
		svc, err := agreements.NewService(agreements.NewRepository(gormDB), p.GCS, cfg.GCS.BucketName, cfg.GCS.AgreementPrefix, logg)
		if err != nil {
			return nil, fmt.Errorf("agreement service: %w", err)
		}
		agreementGen = svc
	}

	mailClient, err := sendgrid.NewClient(cfg.Sendgrid, logg)
	if err != nil {
		return nil, fmt.Errorf("sendgrid client: %w", err)
	}
	notifier, err := notifications.NewService(mailClient, cfg.Sendgrid.OperatorEmail, logg)
	if err != nil {
		return nil, fmt.Errorf("notification service: %w", err)
	}

	retries, err := finalization.NewOutboxRetryQueue(p.DB, outboxSvc)
	if err != nil {
		return nil, fmt.Errorf("retry queue: %w", err)
	}
	guard, err := finalization.NewGuard(finalization.NewSessionGuard(), p.Redis, cfg.Billing.FinalizationGuardTTL, logg)
	if err != nil {
		return nil, fmt.Errorf("finalization guard: %w", err)
	}

	finalizer, err := finalization.NewService(finalization.ServiceParams{
		Guard:      guard,
		Bookings:   bookingRepo,
		Persister:  persister,
		Agreements: agreementGen,
		Notifier:   notifier,
		Retries:    retries,
		Metrics:    p.Metrics,
		Logger:     logg,
	})
	if err != nil {
		return nil, fmt.Errorf("finalization service: %w", err)
	}

	confirmer, err := finalization.NewConfirmer(bookingRepo, gateway, finalizer, logg)
	if err != nil {
		return nil, fmt.Errorf("confirmer: %w", err)
	}

	manager, err := idempotency.NewManager(p.Redis, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("idempotency manager: %w", err)
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(manager)
	if err != nil {
		return nil, fmt.Errorf("webhook guard: %w", err)
	}
	webhookSvc, err := stripewebhook.NewService(bookingRepo, finalizer, logg)
	if err != nil {
		return nil, fmt.Errorf("webhook service: %w", err)
	}

	return &app{
		bookings:     bookingSvc,
		confirmer:    confirmer,
		webhook:      webhookSvc,
		webhookGuard: webhookGuard,
	}, nil
}
