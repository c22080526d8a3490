package finalization

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/wedplan-backend/internal/bookings"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

// IntentReader fetches a PaymentIntent from the gateway.
type IntentReader interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// Finalizer is the finalization entry point shared by the webhook and the
// client callback.
type Finalizer interface {
	Finalize(ctx context.Context, payment ConfirmedPayment) (Result, error)
}

// PaymentFromIntent maps a succeeded PaymentIntent onto a confirmed payment.
// The payer account reference is the saved payment method, falling back to
// the customer when the intent carries none.
func PaymentFromIntent(pi *stripe.PaymentIntent, bookingID uuid.UUID, confirmedAt time.Time, source string) ConfirmedPayment {
	payment := ConfirmedPayment{
		PaymentRef:          pi.ID,
		BookingID:           bookingID,
		AmountCapturedCents: money.Cents(pi.AmountReceived),
		Method:              enums.PaymentMethodCard,
		ConfirmedAt:         confirmedAt.UTC(),
		Source:              source,
	}
	if pi.Customer != nil {
		payment.PayerAccountRef = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		if pi.PaymentMethod.ID != "" {
			payment.PayerAccountRef = pi.PaymentMethod.ID
		}
		if method, err := enums.ParsePaymentMethodType(string(pi.PaymentMethod.Type)); err == nil {
			payment.Method = method
		}
	}
	return payment
}

// BookingIDFromIntent reads the booking id stamped on the intent at checkout.
func BookingIDFromIntent(pi *stripe.PaymentIntent) (uuid.UUID, bool) {
	if pi == nil || pi.Metadata == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(pi.Metadata[bookings.MetadataBookingID])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Confirmer handles the client success callback: it re-reads the intent from
// the gateway and finalizes only when the capture succeeded.
type Confirmer struct {
	bookings  BookingStore
	intents   IntentReader
	finalizer Finalizer
	logg      *logger.Logger
	clock     func() time.Time
}

// NewConfirmer wires the client confirmation flow.
func NewConfirmer(bookings BookingStore, intents IntentReader, finalizer Finalizer, logg *logger.Logger) (*Confirmer, error) {
	switch {
	case bookings == nil:
		return nil, errors.New("booking store required")
	case intents == nil:
		return nil, errors.New("intent reader required")
	case finalizer == nil:
		return nil, errors.New("finalizer required")
	case logg == nil:
		return nil, errors.New("logger required")
	}
	return &Confirmer{bookings: bookings, intents: intents, finalizer: finalizer, logg: logg, clock: time.Now}, nil
}

// Confirm finalizes bookingID from its PaymentIntent.
func (c *Confirmer) Confirm(ctx context.Context, bookingID uuid.UUID) (Result, error) {
	booking, err := c.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if db.IsNotFound(err) {
			return Result{}, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.PaymentIntentID == nil || *booking.PaymentIntentID == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeStateConflict, "booking has no payment intent")
	}

	pi, err := c.intents.GetPaymentIntent(ctx, *booking.PaymentIntentID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve payment intent")
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return Result{}, pkgerrors.New(pkgerrors.CodePayment, "payment has not succeeded").
			WithDetails(map[string]any{"status": string(pi.Status)})
	}

	return c.finalizer.Finalize(ctx, PaymentFromIntent(pi, booking.ID, c.clock(), SourceClient))
}
