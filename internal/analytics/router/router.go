package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/wedplan-backend/internal/analytics/types"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/payloads"
)

// ErrUnsupportedEventType marks events the analytics sink does not record.
var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer stores billing_plans rows.
type Writer interface {
	InsertBillingPlan(ctx context.Context, row types.BillingPlanRow) error
}

// Handler receives an envelope plus its decoded payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

type route struct {
	decode  func(json.RawMessage) (any, error)
	handler Handler
}

// Router decodes each envelope into the payload type registered for its
// event type and hands it to that type's handler.
type Router struct {
	routes map[enums.OutboxEventType]route
}

// NewRouter registers the billing plan row builders. overrides swap the
// handler of an already routed event type; unknown types are ignored.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.OutboxEventType]Handler) (*Router, error) {
	switch {
	case writer == nil:
		return nil, errors.New("analytics router: writer required")
	case logg == nil:
		return nil, errors.New("analytics router: logger required")
	}
	r := &Router{routes: map[enums.OutboxEventType]route{
		enums.EventBookingFinalized: {
			decode:  decodeAs[payloads.BookingFinalizedEvent],
			handler: rowHandler{build: typed(bookingFinalizedRow), writer: writer, logg: logg},
		},
		enums.EventBillingPlanSuperseded: {
			decode:  decodeAs[payloads.BillingPlanSupersededEvent],
			handler: rowHandler{build: typed(planSupersededRow), writer: writer, logg: logg},
		},
	}}
	for eventType, h := range overrides {
		if rt, ok := r.routes[eventType]; ok && h != nil {
			rt.handler = h
			r.routes[eventType] = rt
		}
	}
	return r, nil
}

// Supports reports whether eventType has a handler.
func (r *Router) Supports(eventType enums.OutboxEventType) bool {
	_, ok := r.routes[eventType]
	return ok
}

func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	rt, ok := r.routes[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", envelope.EventType)
	}
	payload, err := rt.decode(envelope.Payload)
	if err != nil {
		return fmt.Errorf("%s: %w", envelope.EventType, err)
	}
	return rt.handler.Handle(ctx, envelope, payload)
}

func decodeAs[T any](raw json.RawMessage) (any, error) {
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

type rowBuilder func(env types.Envelope, payload any) (types.BillingPlanRow, error)

func typed[T any](build func(types.Envelope, *T) types.BillingPlanRow) rowBuilder {
	return func(env types.Envelope, payload any) (types.BillingPlanRow, error) {
		p, ok := payload.(*T)
		if !ok {
			return types.BillingPlanRow{}, fmt.Errorf("payload is %T, want %T", payload, p)
		}
		return build(env, p), nil
	}
}

// rowHandler writes one billing_plans row per event and keeps the raw
// payload alongside the typed columns.
type rowHandler struct {
	build  rowBuilder
	writer Writer
	logg   *logger.Logger
}

func (h rowHandler) Handle(ctx context.Context, env types.Envelope, payload any) error {
	row, err := h.build(env, payload)
	if err != nil {
		return err
	}
	row.Payload = rawJSON(env.Payload)

	ctx = h.logg.WithFields(ctx, map[string]any{
		"booking_id":  row.BookingID,
		"snapshot_id": row.SnapshotID,
		"plan_status": row.PlanStatus,
	})
	if err := h.writer.InsertBillingPlan(ctx, row); err != nil {
		return err
	}
	h.logg.Info(ctx, "billing plan row written")
	return nil
}
