package stripewebhook

import (
	"context"
	"errors"
	"fmt"
)

// ProviderStripe scopes webhook markers in Redis.
const ProviderStripe = "stripe"

type webhookMarker interface {
	CheckAndMarkWebhook(ctx context.Context, provider, eventID string) (bool, error)
	DeleteWebhook(ctx context.Context, provider, eventID string) error
}

// IdempotencyGuard drops Stripe redeliveries of an event id that was already
// handled. It is a fast path only; finalization keeps its own guard.
type IdempotencyGuard struct {
	marker   webhookMarker
	provider string
}

// NewIdempotencyGuard binds the shared idempotency manager to Stripe events.
func NewIdempotencyGuard(marker webhookMarker) (*IdempotencyGuard, error) {
	if marker == nil {
		return nil, errors.New("idempotency manager is required")
	}
	return &IdempotencyGuard{marker: marker, provider: ProviderStripe}, nil
}

// CheckAndMark reports whether eventID was seen before and claims it otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	seen, err := g.marker.CheckAndMarkWebhook(ctx, g.provider, eventID)
	if err != nil {
		return false, fmt.Errorf("mark stripe event: %w", err)
	}
	return seen, nil
}

// Delete releases eventID so Stripe's next delivery is processed again.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	return g.marker.DeleteWebhook(ctx, g.provider, eventID)
}
