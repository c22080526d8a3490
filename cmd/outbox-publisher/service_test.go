package main

import (
	"context"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/metrics"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/registry"
)

func TestProcessBatchSettlesEachRow(t *testing.T) {
	rows := []models.OutboxEvent{finalizedRow(0), finalizedRow(0)}
	h := newHarness(t, rows, 5)
	h.pub.errs = []error{errors.New("deadline exceeded"), nil}

	n, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []uuid.UUID{rows[0].ID}, h.repo.failed)
	require.Equal(t, []uuid.UUID{rows[1].ID}, h.repo.published)
	require.Empty(t, h.dlq.entries)

	msg := h.pub.sent[1]
	require.Equal(t, string(enums.EventBookingFinalized), msg.Attributes["event_type"])
	require.Equal(t, rows[1].AggregateID.String(), msg.Attributes["aggregate_id"])
	require.Equal(t, rows[1].ID.String(), msg.Attributes["event_id"])
}

func TestProcessBatchDeadLettersUnresolvableRows(t *testing.T) {
	row := finalizedRow(0)
	h := newHarness(t, []models.OutboxEvent{row}, 5)
	h.registry.err = registry.NewNonRetryableError(errors.New("invalid payload"))

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.dlq.entries, 1)
	entry := h.dlq.entries[0]
	require.Equal(t, row.ID, entry.EventID)
	require.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	require.Equal(t, []byte(row.Payload), []byte(entry.Payload))
	require.Equal(t, []uuid.UUID{row.ID}, h.repo.terminal)
	require.Empty(t, h.pub.sent)
}

func TestProcessBatchDeadLettersAfterMaxAttempts(t *testing.T) {
	row := finalizedRow(1)
	h := newHarness(t, []models.OutboxEvent{row}, 2)
	h.pub.errs = []error{errors.New("unavailable")}

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.dlq.entries, 1)
	require.Equal(t, enums.OutboxDLQReasonMaxAttempts, h.dlq.entries[0].ErrorReason)
	require.Contains(t, *h.dlq.entries[0].ErrorMessage, "max publish attempts reached")
	require.Empty(t, h.repo.failed)
}

func TestProcessBatchAbortsOnBookkeepingFailure(t *testing.T) {
	h := newHarness(t, []models.OutboxEvent{finalizedRow(0)}, 5)
	h.repo.publishErr = errors.New("connection reset")

	_, err := h.svc.processBatch(context.Background())
	require.ErrorContains(t, err, "mark published")
}

func TestTopicSetReusesPublisherPerTopic(t *testing.T) {
	retry := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventAgreementRetryRequested,
		AggregateType: enums.AggregateBillingSnapshot,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
	}
	h := newHarness(t, []models.OutboxEvent{retry, retry}, 5)
	h.registry.topic = "finalization-topic"

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"finalization-topic"}, h.factoryCalls)
	require.Len(t, h.repo.published, 2)

	h.svc.topics.stop()
	require.True(t, h.pub.stopped)
	require.Empty(t, h.svc.topics.publishers)
}

func TestProcessBatchRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rows := []models.OutboxEvent{finalizedRow(0), finalizedRow(0)}
	h := newHarness(t, rows, 5)
	h.svc.metrics = metrics.NewOutboxMetrics(reg)
	h.pub.errs = []error{nil, errors.New("unavailable")}

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "wedplan_outbox_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" {
					counts[l.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	require.Equal(t, map[string]float64{metrics.OutboxPublished: 1, metrics.OutboxRetry: 1}, counts)
}

func TestPacerBacksOffAndResets(t *testing.T) {
	p := newPacer(100*time.Millisecond, 300*time.Millisecond)

	first := p.failure()
	require.GreaterOrEqual(t, first, 200*time.Millisecond)
	require.Less(t, first, 200*time.Millisecond+jitterWindow)

	p.failure()
	capped := p.failure()
	require.GreaterOrEqual(t, capped, 300*time.Millisecond)
	require.Less(t, capped, 300*time.Millisecond+jitterWindow)

	idle := p.idle()
	require.Less(t, idle, 100*time.Millisecond+jitterWindow)
	require.Equal(t, 100*time.Millisecond, p.current)
}

func TestRunFailsWhenDependencyDown(t *testing.T) {
	h := newHarness(t, nil, 5)
	h.svc.db = &fakeDB{pingErr: errors.New("refused")}

	err := h.svc.Run(context.Background())
	require.ErrorContains(t, err, "database ping failed")
}

type harness struct {
	svc          *Service
	repo         *fakeRepo
	dlq          *fakeDLQRepo
	registry     *fakeRegistry
	pub          *fakePublisher
	factoryCalls []string
}

func newHarness(t *testing.T, rows []models.OutboxEvent, maxAttempts int) *harness {
	t.Helper()
	h := &harness{
		repo:     &fakeRepo{events: rows},
		dlq:      &fakeDLQRepo{},
		registry: &fakeRegistry{topic: "billing-topic"},
		pub:      &fakePublisher{},
	}
	topics := newTopicSet(func(topic string) publisher {
		h.factoryCalls = append(h.factoryCalls, topic)
		return h.pub
	})
	svc, err := NewService(ServiceParams{
		Config: &config.Config{Outbox: config.OutboxConfig{
			BatchSize:      len(rows) + 1,
			PollIntervalMS: 100,
			MaxAttempts:    maxAttempts,
		}},
		Logger:        logger.Nop(),
		DB:            &fakeDB{},
		PubSub:        fakePubSubClient{},
		Repository:    h.repo,
		Registry:      h.registry,
		DLQRepository: h.dlq,
		Topics:        topics,
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func finalizedRow(attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventBookingFinalized,
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		AttemptCount:  attempts,
		CreatedAt:     time.Now().Add(-time.Second),
	}
}

type fakeRepo struct {
	events     []models.OutboxEvent
	published  []uuid.UUID
	failed     []uuid.UUID
	terminal   []uuid.UUID
	publishErr error
}

func (f *fakeRepo) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakePubSubClient struct{}

func (fakePubSubClient) Ping(context.Context) error { return nil }

func (fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	errs    []error
	sent    []*gcppubsub.Message
	stopped bool
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	return fakePublishResult{err: err}
}

func (f *fakePublisher) Stop() { f.stopped = true }

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}

type fakeRegistry struct {
	topic string
	err   error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			Topic:         f.topic,
		},
		Envelope: outbox.PayloadEnvelope{
			EventID:    event.ID.String(),
			OccurredAt: event.CreatedAt,
		},
	}, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
