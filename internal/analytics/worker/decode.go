package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/wedplan-backend/internal/analytics/types"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
)

// errUnknownEventType covers event types this build does not know. Newer
// publishers may add types before the worker is redeployed.
var errUnknownEventType = errors.New("unknown event type")

// decodeEnvelope merges the publisher's message attributes with the stored
// payload envelope. The payload wins for the event id and timestamp.
func decodeEnvelope(data []byte, attrs map[string]string) (types.Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &stored); err != nil {
		return types.Envelope{}, fmt.Errorf("decode payload envelope: %w", err)
	}
	attr := func(name string) string { return strings.TrimSpace(attrs[name]) }

	eventType, err := enums.ParseOutboxEventType(attr("event_type"))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("%w: %q", errUnknownEventType, attr("event_type"))
	}
	aggregateType, err := enums.ParseOutboxAggregateType(attr("aggregate_type"))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("aggregate_type: %w", err)
	}

	env := types.Envelope{
		EventID:       strings.TrimSpace(stored.EventID),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   attr("aggregate_id"),
		OccurredAt:    stored.OccurredAt.UTC(),
		Payload:       stored.Data,
	}
	if env.EventID == "" {
		env.EventID = attr("event_id")
	}
	if env.OccurredAt.IsZero() {
		if t, err := time.Parse(time.RFC3339Nano, attr("created_at")); err == nil {
			env.OccurredAt = t.UTC()
		}
	}

	switch {
	case env.EventID == "":
		return types.Envelope{}, errors.New("event_id missing")
	case env.AggregateID == "":
		return types.Envelope{}, errors.New("aggregate_id missing")
	}
	return env, nil
}
