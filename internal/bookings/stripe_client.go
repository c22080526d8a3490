package bookings

import (
	"context"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/angelmondragon/wedplan-backend/pkg/stripe"
)

// MetadataBookingID is the PaymentIntent metadata entry naming the booking.
const MetadataBookingID = "booking_id"

// PaymentIntentInput describes the charge collected at checkout.
type PaymentIntentInput struct {
	BookingID   uuid.UUID
	CustomerID  string
	AmountCents int64
	Description string
	// SaveForLater asks Stripe to keep the payment method for off-session
	// installment charges.
	SaveForLater bool
}

// PaymentGateway exposes the subset of Stripe operations the booking flow needs.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, bookingID uuid.UUID, email, name string) (string, error)
	CreatePaymentIntent(ctx context.Context, input PaymentIntentInput) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type stripeGateway struct {
	currency string
}

// NewStripeGateway wraps the configured Stripe client.
func NewStripeGateway(api *pkgstripe.Client) PaymentGateway {
	if api == nil {
		return nil
	}
	return &stripeGateway{currency: api.Currency()}
}

func (g *stripeGateway) CreateCustomer(ctx context.Context, bookingID uuid.UUID, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata(MetadataBookingID, bookingID.String())
	params.SetIdempotencyKey("customer-" + bookingID.String())
	c, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (g *stripeGateway) CreatePaymentIntent(ctx context.Context, input PaymentIntentInput) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(input.AmountCents),
		Currency:    stripe.String(g.currency),
		Customer:    stripe.String(input.CustomerID),
		Description: stripe.String(input.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if input.SaveForLater {
		params.SetupFutureUsage = stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession))
	}
	params.Context = ctx
	params.AddMetadata(MetadataBookingID, input.BookingID.String())
	params.SetIdempotencyKey("checkout-" + input.BookingID.String())
	return paymentintent.New(params)
}

func (g *stripeGateway) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("payment_method")
	return paymentintent.Get(id, params)
}
