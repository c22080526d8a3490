package worker

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/internal/analytics/router"
	"github.com/angelmondragon/wedplan-backend/internal/analytics/types"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/idempotency"
)

const consumerName = "analytics"

// Handler records one analytics envelope.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

type onceRunner interface {
	Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (idempotency.Outcome, error)
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// Service consumes the billing subscription and records billing plan rows.
// Malformed and unroutable messages are acked and logged; only failed
// writes are nacked for redelivery.
type Service struct {
	subscription receiver
	handler      Handler
	once         onceRunner
	logg         *logger.Logger
}

func NewService(subscription *gcppubsub.Subscriber, handler Handler, once onceRunner, logg *logger.Logger) (*Service, error) {
	switch {
	case subscription == nil:
		return nil, errors.New("analytics worker: subscription required")
	case handler == nil:
		return nil, errors.New("analytics worker: handler required")
	case once == nil:
		return nil, errors.New("analytics worker: idempotency manager required")
	case logg == nil:
		return nil, errors.New("analytics worker: logger required")
	}
	return &Service{subscription: subscription, handler: handler, once: once, logg: logg}, nil
}

func (s *Service) Run(ctx context.Context) error {
	return s.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		fields := map[string]any{"message_id": msg.ID, "consumer": consumerName}
		if msg.DeliveryAttempt != nil {
			fields["delivery_attempt"] = *msg.DeliveryAttempt
		}
		if s.process(s.logg.WithFields(ctx, fields), msg.Data, msg.Attributes) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process reports whether the message should be redelivered.
func (s *Service) process(ctx context.Context, data []byte, attrs map[string]string) bool {
	env, err := decodeEnvelope(data, attrs)
	if errors.Is(err, errUnknownEventType) {
		s.logg.Debug(s.logg.WithField(ctx, "reason", err.Error()), "analytics message skipped")
		return false
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "analytics message dropped")
		return false
	}
	ctx = s.logg.WithFields(ctx, env.LogFields())

	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		s.logg.Warn(ctx, "analytics message dropped: event id is not a uuid")
		return false
	}

	outcome, err := s.once.Once(ctx, consumerName, eventID, func(ctx context.Context) error {
		return s.handler.Handle(ctx, env)
	})
	switch {
	case errors.Is(err, router.ErrUnsupportedEventType):
		s.logg.Debug(ctx, "event not recorded by analytics")
		return false
	case err != nil:
		s.logg.Error(ctx, "analytics event failed", err)
		return true
	case outcome == idempotency.Skipped:
		s.logg.Info(ctx, "analytics event already recorded")
	}
	return false
}
