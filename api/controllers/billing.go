package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/api/responses"
	"github.com/angelmondragon/wedplan-backend/api/validators"
	"github.com/angelmondragon/wedplan-backend/internal/bookings"
	"github.com/angelmondragon/wedplan-backend/pkg/calendar"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
	"github.com/angelmondragon/wedplan-backend/pkg/pagination"
)

// BillingService is the booking surface used by the billing routes.
type BillingService interface {
	Quote(ctx context.Context, input bookings.QuoteInput) (bookings.QuoteResult, error)
	GetBilling(ctx context.Context, bookingID uuid.UUID) (bookings.BillingView, error)
	ListSnapshots(ctx context.Context, bookingID uuid.UUID, params pagination.Params) (bookings.SnapshotPage, error)
	Recompute(ctx context.Context, bookingID uuid.UUID, weddingDate time.Time) (bookings.BillingView, error)
}

type quoteRequest struct {
	ProductKey  string  `json:"product_key" validate:"required,max=64"`
	TotalCents  int64   `json:"total_cents" validate:"gte=0"`
	Strategy    string  `json:"strategy" validate:"required,payment_strategy"`
	WeddingDate *string `json:"wedding_date,omitempty" validate:"omitempty,iso_date"`
}

type recomputeRequest struct {
	WeddingDate string `json:"wedding_date" validate:"required,iso_date"`
}

// BillingQuote previews the plan for a product without side effects.
func BillingQuote(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		weddingDate, err := validators.ParseOptionalDate(payload.WeddingDate, "wedding_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Quote(r.Context(), bookings.QuoteInput{
			ProductKey:  strings.TrimSpace(payload.ProductKey),
			TotalCents:  money.Cents(payload.TotalCents),
			Strategy:    enums.PaymentStrategy(payload.Strategy),
			WeddingDate: weddingDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BookingBilling returns the current billing snapshot of a booking.
func BookingBilling(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}
		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetBilling(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// BookingSnapshots lists snapshot history newest first.
func BookingSnapshots(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}
		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListSnapshots(r.Context(), bookingID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// BookingRecompute replaces the current plan after a wedding date correction.
func BookingRecompute(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}
		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recomputeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		weddingDate, err := calendar.ParseDate(payload.WeddingDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid wedding_date"))
			return
		}

		view, err := svc.Recompute(r.Context(), bookingID, weddingDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}
