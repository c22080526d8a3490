package finalization

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/payloads"
)

type dedupEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error)
}

// OutboxRetryQueue enqueues failed collaborator steps as outbox events that
// the publisher forwards to the finalization topic.
type OutboxRetryQueue struct {
	db     txRunner
	outbox dedupEmitter
}

// NewOutboxRetryQueue wires the retry queue.
func NewOutboxRetryQueue(db txRunner, emitter dedupEmitter) (*OutboxRetryQueue, error) {
	if db == nil {
		return nil, errors.New("db client required")
	}
	if emitter == nil {
		return nil, errors.New("outbox service required")
	}
	return &OutboxRetryQueue{db: db, outbox: emitter}, nil
}

// Enqueue records a retry for step. A retry already pending for the same
// snapshot and step is not duplicated.
func (q *OutboxRetryQueue) Enqueue(ctx context.Context, step enums.FinalizationStep, req RetryRequest) error {
	var (
		eventType enums.OutboxEventType
		data      any
	)
	switch step {
	case enums.FinalizationStepAgreement:
		eventType = enums.EventAgreementRetryRequested
		data = payloads.AgreementRetryRequestedEvent{
			BookingID:   req.BookingID,
			SnapshotID:  req.SnapshotID,
			PaymentRef:  req.PaymentRef,
			Reason:      req.Reason,
			RequestedAt: req.RequestedAt,
		}
	case enums.FinalizationStepNotification:
		eventType = enums.EventNotificationRetryRequested
		data = payloads.NotificationRetryRequestedEvent{
			BookingID:   req.BookingID,
			SnapshotID:  req.SnapshotID,
			PaymentRef:  req.PaymentRef,
			Reason:      req.Reason,
			RequestedAt: req.RequestedAt,
		}
	default:
		return fmt.Errorf("step %q cannot be retried", step)
	}

	return q.db.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := q.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateBillingSnapshot,
			AggregateID:   req.SnapshotID,
			Actor:         &outbox.ActorRef{Kind: "finalizer", ID: req.PaymentRef},
			OccurredAt:    req.RequestedAt,
			Data:          data,
		})
		return err
	})
}
