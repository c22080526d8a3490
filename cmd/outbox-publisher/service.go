package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/metrics"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// ServiceParams wires the publisher loop. Topics defaults to Pub/Sub
// publishers created from PubSub.
type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbClient
	PubSub        pubSubClient
	Repository    outboxRepository
	Registry      registryResolver
	DLQRepository dlqRepository
	Topics        *topicSet
	Metrics       *metrics.OutboxMetrics
}

// Service drains the outbox table into Pub/Sub. Each batch runs in a single
// transaction holding row locks, so several replicas can share the table.
type Service struct {
	logg        *logger.Logger
	db          dbClient
	pubsub      pubSubClient
	repo        outboxRepository
	registry    registryResolver
	dlq         dlqRepository
	topics      *topicSet
	metrics     *metrics.OutboxMetrics
	batchSize   int
	maxAttempts int
	poll        time.Duration
	clock       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	topics := params.Topics
	if topics == nil {
		topics = newTopicSet(gcpPublisherFactory(params.PubSub))
	}

	outboxCfg := params.Config.Outbox
	svc := &Service{
		logg:        params.Logger,
		db:          params.DB,
		pubsub:      params.PubSub,
		repo:        params.Repository,
		registry:    params.Registry,
		dlq:         params.DLQRepository,
		topics:      topics,
		metrics:     params.Metrics,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		poll:        defaultPoll,
		clock:       time.Now,
	}
	if outboxCfg.BatchSize > 0 {
		svc.batchSize = outboxCfg.BatchSize
	}
	if outboxCfg.MaxAttempts > 0 {
		svc.maxAttempts = outboxCfg.MaxAttempts
	}
	if outboxCfg.PollIntervalMS > 0 {
		svc.poll = time.Duration(outboxCfg.PollIntervalMS) * time.Millisecond
	}
	return svc, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{
		"database": s.db.Ping,
		"pubsub":   s.pubsub.Ping,
	} {
		if err := ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	return nil
}

// Run polls until ctx is canceled. A full batch is followed immediately by
// the next one; batch errors back off exponentially up to maxBackoff.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}
	defer s.topics.stop()

	p := newPacer(s.poll, maxBackoff)
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		n, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			wait = p.failure()
		case n > 0:
			p.reset()
			continue
		default:
			wait = p.idle()
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
}

// pacer computes jittered waits between polls.
type pacer struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
	rng     *rand.Rand
}

func newPacer(base, max time.Duration) *pacer {
	return &pacer{
		base:    base,
		max:     max,
		current: base,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *pacer) reset() { p.current = p.base }

func (p *pacer) idle() time.Duration {
	p.reset()
	return p.jitter(p.base)
}

func (p *pacer) failure() time.Duration {
	p.current = min(p.current*2, p.max)
	return p.jitter(p.current)
}

func (p *pacer) jitter(d time.Duration) time.Duration {
	return d + time.Duration(p.rng.Int63n(int64(jitterWindow)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
