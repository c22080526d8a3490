package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/api/responses"
	"github.com/angelmondragon/wedplan-backend/api/validators"
	"github.com/angelmondragon/wedplan-backend/internal/agreements"
	"github.com/angelmondragon/wedplan-backend/internal/bookings"
	"github.com/angelmondragon/wedplan-backend/internal/finalization"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

// CheckoutService creates booking drafts and their PaymentIntents.
type CheckoutService interface {
	Checkout(ctx context.Context, input bookings.CheckoutInput) (bookings.CheckoutResult, error)
}

// ConfirmService finalizes a booking from the client success callback.
type ConfirmService interface {
	Confirm(ctx context.Context, bookingID uuid.UUID) (finalization.Result, error)
}

type createBookingRequest struct {
	ProductKey    string                `json:"product_key" validate:"required,max=64"`
	ProductLabel  string                `json:"product_label" validate:"required,max=120"`
	Category      string                `json:"category" validate:"required,product_category"`
	CustomerName  string                `json:"customer_name" validate:"required,max=120"`
	CustomerEmail string                `json:"customer_email" validate:"required,email,max=254"`
	TotalCents    int64                 `json:"total_cents" validate:"gt=0"`
	Strategy      string                `json:"strategy" validate:"required,payment_strategy"`
	WeddingDate   *string               `json:"wedding_date,omitempty" validate:"omitempty,iso_date"`
	LineItems     []agreements.LineItem `json:"line_items,omitempty" validate:"omitempty,max=50,dive"`
}

// CreateBooking stores a booking draft and returns the PaymentIntent client
// secret for the deposit or full charge.
func CreateBooking(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createBookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		weddingDate, err := validators.ParseOptionalDate(payload.WeddingDate, "wedding_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), bookings.CheckoutInput{
			ProductKey:    strings.TrimSpace(payload.ProductKey),
			ProductLabel:  validators.SanitizeString(payload.ProductLabel, 120),
			Category:      enums.ProductCategory(payload.Category),
			CustomerName:  validators.SanitizeString(payload.CustomerName, 120),
			CustomerEmail: payload.CustomerEmail,
			TotalCents:    money.Cents(payload.TotalCents),
			Strategy:      enums.PaymentStrategy(payload.Strategy),
			WeddingDate:   weddingDate,
			LineItems:     payload.LineItems,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ConfirmBooking re-reads the booking's PaymentIntent and finalizes it when
// the capture succeeded. Step failures are reported in the body because the
// payment itself is already taken.
func ConfirmBooking(svc ConfirmService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "confirmation service unavailable"))
			return
		}
		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBookingID(ctx, bookingID.String())
		}
		result, err := svc.Confirm(ctx, bookingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
