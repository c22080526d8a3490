package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/internal/billing"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/wedplan-backend/pkg/pagination"
)

// minimumChargeCents is the smallest amount Stripe accepts for USD.
const minimumChargeCents = 50

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs the booking checkout and billing read/correction flows.
type Service struct {
	db        txRunner
	bookings  Repository
	snapshots SnapshotRepository
	catalog   *billing.Catalog
	gateway   PaymentGateway
	outbox    outboxEmitter
	logg      *logger.Logger
	clock     func() time.Time
}

// ServiceParams groups the booking service dependencies.
type ServiceParams struct {
	DB        txRunner
	Bookings  Repository
	Snapshots SnapshotRepository
	Catalog   *billing.Catalog
	Gateway   PaymentGateway
	Outbox    outboxEmitter
	Logger    *logger.Logger
}

// NewService validates and wires the booking service.
func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.DB == nil:
		return nil, errors.New("db client required")
	case p.Bookings == nil:
		return nil, errors.New("booking repository required")
	case p.Snapshots == nil:
		return nil, errors.New("snapshot repository required")
	case p.Catalog == nil:
		return nil, errors.New("billing catalog required")
	case p.Gateway == nil:
		return nil, errors.New("payment gateway required")
	case p.Outbox == nil:
		return nil, errors.New("outbox service required")
	case p.Logger == nil:
		return nil, errors.New("logger required")
	}
	return &Service{
		db:        p.DB,
		bookings:  p.Bookings,
		snapshots: p.Snapshots,
		catalog:   p.Catalog,
		gateway:   p.Gateway,
		outbox:    p.Outbox,
		logg:      p.Logger,
		clock:     time.Now,
	}, nil
}

// Quote previews the plan a checkout would produce now. It has no side
// effects.
func (s *Service) Quote(ctx context.Context, input QuoteInput) (QuoteResult, error) {
	plan, profile, err := s.catalog.Quote(input.ProductKey, input.TotalCents, input.Strategy, s.clock().UTC(), input.WeddingDate)
	if err != nil {
		return QuoteResult{}, err
	}
	snap := billing.BuildSnapshot(plan, profile.ProductKey, "")
	return QuoteResult{
		ProductKey:         profile.ProductKey,
		DepositPercent:     profile.DepositPercent.String(),
		FinalDueOffsetDays: profile.FinalDueOffsetDays,
		PaymentPlan:        snap.PaymentPlan,
		PaymentPlanAuto:    snap.PaymentPlanAuto,
	}, nil
}

// Checkout stores a booking draft and opens a PaymentIntent for the amount
// due today.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (CheckoutResult, error) {
	if !input.Category.IsValid() {
		return CheckoutResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	plan, profile, err := s.catalog.Quote(input.ProductKey, input.TotalCents, input.Strategy, s.clock().UTC(), input.WeddingDate)
	if err != nil {
		return CheckoutResult{}, err
	}
	due := plan.DueToday()
	if due < minimumChargeCents {
		return CheckoutResult{}, pkgerrors.New(pkgerrors.CodeValidation, "amount due today is below the gateway minimum").
			WithDetails(map[string]any{"amount_due_cents": due.Int64(), "minimum_cents": minimumChargeCents})
	}

	lineItems, err := json.Marshal(input.LineItems)
	if err != nil {
		return CheckoutResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line items")
	}

	booking := &models.Booking{
		ID:                 uuid.New(),
		ProductKey:         profile.ProductKey,
		ProductLabel:       strings.TrimSpace(input.ProductLabel),
		Category:           input.Category,
		CustomerName:       strings.TrimSpace(input.CustomerName),
		CustomerEmail:      strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		TotalCents:         input.TotalCents.Int64(),
		Strategy:           input.Strategy,
		DepositPercent:     profile.DepositPercent,
		FinalDueOffsetDays: profile.FinalDueOffsetDays,
		WeddingDate:        input.WeddingDate,
		LineItems:          lineItems,
		Status:             enums.BookingStatusPendingPayment,
		AmountDueCents:     due.Int64(),
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return CheckoutResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}
	ctx = s.logg.WithBookingID(ctx, booking.ID.String())

	customerID, err := s.stripeCustomer(ctx, booking)
	if err != nil {
		return CheckoutResult{}, err
	}
	intent, err := s.gateway.CreatePaymentIntent(ctx, PaymentIntentInput{
		BookingID:    booking.ID,
		CustomerID:   customerID,
		AmountCents:  due.Int64(),
		Description:  booking.ProductLabel,
		SaveForLater: plan.RemainingCents > 0,
	})
	if err != nil {
		return CheckoutResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	if err := s.bookings.SetPaymentIntent(ctx, booking.ID, customerID, intent.ID); err != nil {
		return CheckoutResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach payment intent")
	}

	s.logg.Info(s.logg.WithPaymentRef(ctx, intent.ID), "booking checkout started")
	return CheckoutResult{
		BookingID:       booking.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		AmountDueCents:  due.Int64(),
		PaymentPlan:     billing.BuildSnapshot(plan, profile.ProductKey, "").PaymentPlan,
	}, nil
}

// stripeCustomer reuses the Stripe customer from an earlier checkout by the
// same email and only creates one for first-time couples.
func (s *Service) stripeCustomer(ctx context.Context, booking *models.Booking) (string, error) {
	existing, err := s.bookings.FindStripeCustomerID(ctx, booking.CustomerEmail)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up stripe customer")
	}
	if existing != "" {
		s.logg.Debug(s.logg.WithField(ctx, "stripe_customer_id", existing), "reusing stripe customer")
		return existing, nil
	}
	customerID, err := s.gateway.CreateCustomer(ctx, booking.ID, booking.CustomerEmail, booking.CustomerName)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe customer")
	}
	return customerID, nil
}

// GetBilling returns the current snapshot of a finalized booking.
func (s *Service) GetBilling(ctx context.Context, bookingID uuid.UUID) (BillingView, error) {
	row, err := s.snapshots.FindCurrent(ctx, bookingID)
	if err != nil {
		if db.IsNotFound(err) {
			return BillingView{}, pkgerrors.New(pkgerrors.CodeNotFound, "billing snapshot not found")
		}
		return BillingView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billing snapshot")
	}
	view, err := viewFromRow(row)
	if err != nil {
		return BillingView{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode billing snapshot")
	}
	return view, nil
}

// ListSnapshots pages through every snapshot of a booking, newest first.
func (s *Service) ListSnapshots(ctx context.Context, bookingID uuid.UUID, params pagination.Params) (SnapshotPage, error) {
	rows, next, err := s.snapshots.List(ctx, bookingID, params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return SnapshotPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return SnapshotPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billing snapshots")
	}
	page := SnapshotPage{Snapshots: make([]BillingView, 0, len(rows)), NextCursor: next}
	for i := range rows {
		view, err := viewFromRow(&rows[i])
		if err != nil {
			return SnapshotPage{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode billing snapshot")
		}
		page.Snapshots = append(page.Snapshots, view)
	}
	return page, nil
}

// Recompute corrects the wedding date of a finalized deposit booking. The
// new plan keeps the booking's total and strategy, the prior snapshot is
// marked superseded and linked to its replacement.
func (s *Service) Recompute(ctx context.Context, bookingID uuid.UUID, weddingDate time.Time) (BillingView, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if db.IsNotFound(err) {
			return BillingView{}, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return BillingView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.Status != enums.BookingStatusFinalized {
		return BillingView{}, pkgerrors.New(pkgerrors.CodeStateConflict, "only finalized bookings can be recomputed")
	}
	if booking.Strategy != enums.PaymentStrategyDepositThenMonthly {
		return BillingView{}, pkgerrors.New(pkgerrors.CodeStateConflict, "pay-in-full bookings have no schedule to correct")
	}

	current, err := s.snapshots.FindCurrent(ctx, bookingID)
	if err != nil {
		return BillingView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current snapshot")
	}

	now := s.clock().UTC()
	plan, err := billing.ComputePlan(billing.PlanInput{
		TotalCents:         money.Cents(booking.TotalCents),
		Strategy:           booking.Strategy,
		DepositPercent:     booking.DepositPercent,
		Now:                now,
		WeddingDate:        &weddingDate,
		FinalDueOffsetDays: booking.FinalDueOffsetDays,
	})
	if err != nil {
		return BillingView{}, err
	}

	snap := billing.BuildSnapshot(plan, booking.ProductKey, current.PaymentAccountRef)
	row, err := NewSnapshotRecord(uuid.New(), booking.ID, current.PaymentRef, snap, now)
	if err != nil {
		return BillingView{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build snapshot")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.snapshots.WithTx(tx).Create(ctx, row); err != nil {
			return fmt.Errorf("create snapshot: %w", err)
		}
		superseded, err := s.snapshots.WithTx(tx).Supersede(ctx, current.ID, row.ID, now)
		if err != nil {
			return fmt.Errorf("supersede snapshot: %w", err)
		}
		if !superseded {
			return pkgerrors.New(pkgerrors.CodeConflict, "billing plan changed concurrently")
		}
		if err := s.bookings.WithTx(tx).ApplyCorrection(ctx, booking.ID, row.ID, weddingDate); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBillingPlanSuperseded,
			AggregateType: enums.AggregateBillingSnapshot,
			AggregateID:   row.ID,
			OccurredAt:    now,
			Data: payloads.BillingPlanSupersededEvent{
				BookingID:          booking.ID,
				PreviousSnapshotID: current.ID,
				SnapshotID:         row.ID,
				PlanStatus:         plan.Status,
				PlanMonths:         plan.PlanMonths,
				SupersededAt:       now,
			},
		})
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return BillingView{}, err
		}
		return BillingView{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute billing plan")
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithBookingID(ctx, booking.ID.String()), map[string]any{
		"snapshot_id":          row.ID.String(),
		"previous_snapshot_id": current.ID.String(),
		"plan_months":          plan.PlanMonths,
	}), "billing plan recomputed")
	return viewFromRow(row)
}
