package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/wedplan-backend/internal/finalization"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

type bookingLookup interface {
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Booking, error)
}

// Service turns verified Stripe events into booking finalizations.
type Service struct {
	bookings  bookingLookup
	finalizer finalization.Finalizer
	logg      *logger.Logger
}

// NewService wires the Stripe webhook handler.
func NewService(bookings bookingLookup, finalizer finalization.Finalizer, logg *logger.Logger) (*Service, error) {
	if bookings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "booking repository required")
	}
	if finalizer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "finalizer required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{bookings: bookings, finalizer: finalizer, logg: logg}, nil
}

// HandleEvent dispatches a verified event. Unhandled types are acknowledged.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"stripe_event_id":   event.ID,
		"stripe_event_type": string(event.Type),
	})

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		pi, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.handleSucceeded(ctx, pi, time.Unix(event.Created, 0).UTC())
	case stripe.EventTypePaymentIntentPaymentFailed:
		pi, err := decodeIntent(event)
		if err != nil {
			return err
		}
		s.handleFailed(ctx, pi)
		return nil
	default:
		s.logg.Debug(ctx, "stripe event ignored")
		return nil
	}
}

func (s *Service) handleSucceeded(ctx context.Context, pi *stripe.PaymentIntent, confirmedAt time.Time) error {
	bookingID, err := s.resolveBooking(ctx, pi)
	if err != nil {
		return err
	}
	payment := finalization.PaymentFromIntent(pi, bookingID, confirmedAt, finalization.SourceWebhook)
	res, err := s.finalizer.Finalize(ctx, payment)
	if err != nil {
		return err
	}
	if res.State != enums.FinalizationStateFinalized && !res.Duplicate {
		// non-2xx makes Stripe redeliver, which resumes the finalization
		return pkgerrors.New(pkgerrors.CodeDependency, "booking finalization incomplete")
	}
	return nil
}

func (s *Service) handleFailed(ctx context.Context, pi *stripe.PaymentIntent) {
	ctx = s.logg.WithPaymentRef(ctx, pi.ID)
	if bookingID, ok := finalization.BookingIDFromIntent(pi); ok {
		ctx = s.logg.WithBookingID(ctx, bookingID.String())
	}
	fields := map[string]any{"event": "payment.failed"}
	if pi.LastPaymentError != nil {
		fields["decline_code"] = pi.LastPaymentError.DeclineCode
		fields["failure_message"] = pi.LastPaymentError.Msg
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), "checkout payment failed")
}

// resolveBooking prefers the booking id stamped in metadata and falls back
// to the stored PaymentIntent reference.
func (s *Service) resolveBooking(ctx context.Context, pi *stripe.PaymentIntent) (uuid.UUID, error) {
	if id, ok := finalization.BookingIDFromIntent(pi); ok {
		return id, nil
	}
	booking, err := s.bookings.FindByPaymentIntent(ctx, pi.ID)
	if err != nil {
		if db.IsNotFound(err) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "no booking for payment intent")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup booking by payment intent")
	}
	return booking.ID, nil
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}
	if pi.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return &pi, nil
}
