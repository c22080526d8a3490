// Package idempotency marks deliveries as processed in Redis so Pub/Sub
// consumers and webhook handlers act on each event once per TTL.
//
// Keys:
//
//	wp:idempotency:evt:processed:<consumer>:<event_id>   outbox events
//	wp:idempotency:webhook:<provider>:<event_id>         provider webhooks
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/wedplan-backend/pkg/redis"
)

// Outcome reports what Once did with a delivery.
type Outcome int

const (
	// Ran means fn succeeded; the mark stays until the TTL lapses.
	Ran Outcome = iota
	// Skipped means an earlier delivery already holds the mark.
	Skipped
	// Failed means marking or fn failed. The mark was cleared, so a
	// redelivery runs fn again.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Ran:
		return "ran"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager keeps marks for ttl. A zero ttl keeps them forever.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency: store required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("idempotency: negative ttl %s", ttl)
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Once runs fn for the first delivery of eventID to consumer. When fn fails
// the mark is removed so the broker's redelivery gets another attempt.
func (m *Manager) Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (Outcome, error) {
	seen, err := m.CheckAndMarkProcessed(ctx, consumer, eventID)
	if err != nil {
		return Failed, err
	}
	if seen {
		return Skipped, nil
	}
	if err := fn(ctx); err != nil {
		if clearErr := m.Delete(context.WithoutCancel(ctx), consumer, eventID); clearErr != nil {
			err = multierr.Append(err, fmt.Errorf("idempotency: clear mark: %w", clearErr))
		}
		return Failed, err
	}
	return Ran, nil
}

// CheckAndMarkProcessed reports whether eventID was already marked for
// consumer, marking it when it was not.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := m.consumerKey(consumer, eventID)
	if err != nil {
		return false, err
	}
	return m.mark(ctx, key)
}

// Delete clears the mark so a failed delivery can be retried.
func (m *Manager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.consumerKey(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// CheckAndMarkWebhook is CheckAndMarkProcessed for provider event ids such as
// Stripe's "evt_..." strings.
func (m *Manager) CheckAndMarkWebhook(ctx context.Context, provider, eventID string) (bool, error) {
	key, err := m.webhookKey(provider, eventID)
	if err != nil {
		return false, err
	}
	return m.mark(ctx, key)
}

// DeleteWebhook clears a webhook mark after a failed handler run.
func (m *Manager) DeleteWebhook(ctx context.Context, provider, eventID string) error {
	key, err := m.webhookKey(provider, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// mark reports true when the key already existed.
func (m *Manager) mark(ctx context.Context, key string) (bool, error) {
	created, err := m.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return false, fmt.Errorf("idempotency: mark %s: %w", key, err)
	}
	return !created, nil
}

func (m *Manager) consumerKey(consumer string, eventID uuid.UUID) (string, error) {
	switch {
	case consumer == "":
		return "", errors.New("idempotency: consumer name required")
	case eventID == uuid.Nil:
		return "", errors.New("idempotency: event id required")
	}
	return m.store.IdempotencyKey("evt:processed:"+consumer, eventID.String()), nil
}

func (m *Manager) webhookKey(provider, eventID string) (string, error) {
	provider, eventID = strings.TrimSpace(provider), strings.TrimSpace(eventID)
	switch {
	case provider == "":
		return "", errors.New("idempotency: provider required")
	case eventID == "":
		return "", errors.New("idempotency: event id required")
	}
	return m.store.IdempotencyKey("webhook:"+provider, eventID), nil
}
