package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/wedplan-backend/api/responses"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

// maxWebhookBody bounds the payload read before signature verification.
const maxWebhookBody = 64 << 10

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type StripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type StripeVerifier interface {
	VerifyWebhook(payload []byte, signature string) (stripe.Event, error)
}

var received = map[string]bool{"received": true}

// StripeWebhook verifies and dispatches Stripe payment events. Each event id
// is handled once; a handler error releases the id and answers non-2xx so
// Stripe redelivers.
func StripeWebhook(svc StripeWebhookService, verifier StripeVerifier, guard StripeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	if svc == nil || verifier == nil || guard == nil {
		return func(w http.ResponseWriter, r *http.Request) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe webhook not configured"))
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}
		event, err := verifier.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stripe signature"))
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"stripe_event_id": event.ID, "stripe_event_type": string(event.Type)})
		}

		seen, err := guard.CheckAndMark(ctx, event.ID)
		switch {
		case err != nil:
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check webhook idempotency"))
			return
		case seen:
			if logg != nil {
				logg.Debug(ctx, "stripe event already handled")
			}
			responses.WriteSuccess(w, received)
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if relErr := guard.Delete(ctx, event.ID); relErr != nil && logg != nil {
				logg.Error(ctx, "release stripe event id", relErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(ctx, "stripe event handled")
		}
		responses.WriteSuccess(w, received)
	}
}
