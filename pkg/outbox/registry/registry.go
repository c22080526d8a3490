// Package registry knows which topic each outbox event type goes to and how
// its payload is shaped.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/payloads"
)

// EventDescriptor binds an event type to its aggregate, topic and payload.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is an outbox row with its envelope and typed payload decoded.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	byType map[enums.OutboxEventType]EventDescriptor
}

func payloadOf[T any]() func() any {
	return func() any { return new(T) }
}

// NewEventRegistry routes plan lifecycle events to the billing topic and
// finalization step repairs to the finalization topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	billing := strings.TrimSpace(cfg.BillingTopic)
	finalization := strings.TrimSpace(cfg.FinalizationTopic)
	if billing == "" || finalization == "" {
		return nil, errors.New("registry: billing and finalization topics are required")
	}

	catalog := []EventDescriptor{
		{enums.EventBookingFinalized, enums.AggregateBooking, billing, payloadOf[payloads.BookingFinalizedEvent]()},
		{enums.EventBillingPlanSuperseded, enums.AggregateBillingSnapshot, billing, payloadOf[payloads.BillingPlanSupersededEvent]()},
		{enums.EventAgreementRetryRequested, enums.AggregateBillingSnapshot, finalization, payloadOf[payloads.AgreementRetryRequestedEvent]()},
		{enums.EventNotificationRetryRequested, enums.AggregateBillingSnapshot, finalization, payloadOf[payloads.NotificationRetryRequestedEvent]()},
	}
	reg := &EventRegistry{byType: make(map[enums.OutboxEventType]EventDescriptor, len(catalog))}
	for _, d := range catalog {
		reg.byType[d.EventType] = d
	}
	return reg, nil
}

func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	d, ok := r.byType[eventType]
	return d, ok
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every failure is a NonRetryableError: a malformed row stays malformed.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	d, err := r.describe(event)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}

	var env outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &env); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("%s: empty payload", event.EventType))
	}

	payload := d.PayloadFactory()
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s: decode payload: %w", event.EventType, err))
	}
	return &ResolvedEvent{Descriptor: d, Envelope: env, Payload: payload}, nil
}

func (r *EventRegistry) describe(event models.OutboxEvent) (EventDescriptor, error) {
	d, ok := r.byType[event.EventType]
	switch {
	case !ok:
		return d, fmt.Errorf("unsupported event type %q", event.EventType)
	case d.AggregateType != event.AggregateType:
		return d, fmt.Errorf("%s: aggregate %s, want %s", event.EventType, event.AggregateType, d.AggregateType)
	case event.AggregateID == uuid.Nil:
		return d, fmt.Errorf("%s: aggregate_id missing", event.EventType)
	}
	return d, nil
}
