package finalization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/internal/bookings"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/metrics"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/idempotency"
)

const retryConsumerName = "finalization-retries"

type idempotencyManager interface {
	Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (idempotency.Outcome, error)
}

// SnapshotReader loads a stored billing snapshot.
type SnapshotReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillingSnapshot, error)
}

// RetryConsumer re-runs agreement and notification steps queued by the
// finalizer.
type RetryConsumer struct {
	subscription *pubsub.Subscriber
	idempotency  idempotencyManager
	handler      *RetryHandler
	logg         *logger.Logger
}

// RetryHandler performs a single retry. It is separate from the consumer so
// the step logic can be exercised without Pub/Sub.
type RetryHandler struct {
	bookings   BookingStore
	snapshots  SnapshotReader
	agreements AgreementGenerator
	notifier   Notifier
	metrics    *metrics.FinalizationMetrics
}

// NewRetryHandler wires the retry step logic. agreements may be nil when
// agreement rendering is disabled.
func NewRetryHandler(bookingStore BookingStore, snapshots SnapshotReader, agreementGen AgreementGenerator, notifier Notifier, m *metrics.FinalizationMetrics) (*RetryHandler, error) {
	switch {
	case bookingStore == nil:
		return nil, errors.New("booking store required")
	case snapshots == nil:
		return nil, errors.New("snapshot reader required")
	case notifier == nil:
		return nil, errors.New("notifier required")
	}
	return &RetryHandler{
		bookings:   bookingStore,
		snapshots:  snapshots,
		agreements: agreementGen,
		notifier:   notifier,
		metrics:    m,
	}, nil
}

// NewRetryConsumer builds the Pub/Sub consumer for retry events.
func NewRetryConsumer(subscription *pubsub.Subscriber, manager idempotencyManager, handler *RetryHandler, logg *logger.Logger) (*RetryConsumer, error) {
	switch {
	case subscription == nil:
		return nil, errors.New("finalization subscription required")
	case manager == nil:
		return nil, errors.New("idempotency manager required")
	case handler == nil:
		return nil, errors.New("retry handler required")
	case logg == nil:
		return nil, errors.New("logger required")
	}
	return &RetryConsumer{subscription: subscription, idempotency: manager, handler: handler, logg: logg}, nil
}

// Run receives retry events until ctx is canceled.
func (c *RetryConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes["event_type"], msg.Data) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process returns true when the message should be redelivered.
func (c *RetryConsumer) process(ctx context.Context, messageID, eventType string, data []byte) bool {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
		"consumer":   retryConsumerName,
	})

	step, ok := retryStep(enums.OutboxEventType(eventType))
	if !ok {
		c.logg.Info(logCtx, "skipping non-retry event")
		return false
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return false
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return false
	}

	var payload retryPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return false
	}
	logCtx = c.logg.WithBookingID(logCtx, payload.BookingID.String())

	outcome, err := c.idempotency.Once(logCtx, retryConsumerName, eventID, func(ctx context.Context) error {
		return c.handler.Retry(ctx, step, payload.BookingID, payload.SnapshotID)
	})
	if err != nil {
		c.logg.Error(logCtx, "finalization retry failed", err)
		return true
	}
	if outcome == idempotency.Skipped {
		c.logg.Info(logCtx, "event already processed")
		return false
	}
	c.logg.Info(logCtx, "finalization step retried")
	return false
}

// Retry re-runs step for the stored snapshot.
func (h *RetryHandler) Retry(ctx context.Context, step enums.FinalizationStep, bookingID, snapshotID uuid.UUID) (err error) {
	defer func() { h.metrics.IncRetry(step.String(), err == nil) }()

	booking, err := h.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}
	row, err := h.snapshots.FindByID(ctx, snapshotID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := bookings.DecodeSnapshot(row)
	if err != nil {
		return err
	}

	switch step {
	case enums.FinalizationStepAgreement:
		if h.agreements == nil {
			return nil
		}
		req, err := agreementRequest(booking, snapshotID, snap, row.ComputedAt)
		if err != nil {
			return err
		}
		_, err = h.agreements.Generate(ctx, req)
		return err
	case enums.FinalizationStepNotification:
		return h.notifier.Notify(ctx, notificationRequest(booking, snapshotID, snap))
	default:
		return fmt.Errorf("step %q cannot be retried", step)
	}
}

func retryStep(eventType enums.OutboxEventType) (enums.FinalizationStep, bool) {
	switch eventType {
	case enums.EventAgreementRetryRequested:
		return enums.FinalizationStepAgreement, true
	case enums.EventNotificationRetryRequested:
		return enums.FinalizationStepNotification, true
	default:
		return "", false
	}
}

type retryPayload struct {
	BookingID  uuid.UUID `json:"booking_id"`
	SnapshotID uuid.UUID `json:"snapshot_id"`
}
