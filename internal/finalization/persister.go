package finalization

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/internal/bookings"
	"github.com/angelmondragon/wedplan-backend/internal/ledger"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/payloads"
)

// ErrAlreadyProcessed means another run already committed this payment.
var ErrAlreadyProcessed = errors.New("payment already processed")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Persister commits a finalization in one transaction: the processed payment
// row, the snapshot, the ledger entry, the booking transition and the
// booking_finalized event.
type Persister struct {
	db        txRunner
	processed ProcessedPaymentRepository
	bookings  bookings.Repository
	snapshots bookings.SnapshotRepository
	ledger    ledger.Service
	outbox    outboxEmitter
	logg      *logger.Logger
}

// PersisterParams groups the persister dependencies.
type PersisterParams struct {
	DB        txRunner
	Processed ProcessedPaymentRepository
	Bookings  bookings.Repository
	Snapshots bookings.SnapshotRepository
	Ledger    ledger.Service
	Outbox    outboxEmitter
	Logger    *logger.Logger
}

// NewPersister validates and wires the persister.
func NewPersister(p PersisterParams) (*Persister, error) {
	switch {
	case p.DB == nil:
		return nil, errors.New("db client required")
	case p.Processed == nil:
		return nil, errors.New("processed payment repository required")
	case p.Bookings == nil:
		return nil, errors.New("booking repository required")
	case p.Snapshots == nil:
		return nil, errors.New("snapshot repository required")
	case p.Ledger == nil:
		return nil, errors.New("ledger service required")
	case p.Outbox == nil:
		return nil, errors.New("outbox service required")
	case p.Logger == nil:
		return nil, errors.New("logger required")
	}
	return &Persister{
		db:        p.DB,
		processed: p.Processed,
		bookings:  p.Bookings,
		snapshots: p.Snapshots,
		ledger:    p.Ledger,
		outbox:    p.Outbox,
		logg:      p.Logger,
	}, nil
}

// Persist writes rec. It returns ErrAlreadyProcessed when the payment or the
// booking was finalized by another run.
func (p *Persister) Persist(ctx context.Context, rec Record) error {
	booking := rec.Booking
	plan := rec.Snapshot.Plan
	finalizedAt := rec.Payment.ConfirmedAt.UTC()
	snapshotID := rec.SnapshotID

	row, err := bookings.NewSnapshotRecord(snapshotID, booking.ID, rec.Payment.PaymentRef, rec.Snapshot, finalizedAt)
	if err != nil {
		return err
	}

	method := rec.Payment.Method
	if method == "" {
		method = enums.PaymentMethodCard
	}

	return p.db.WithTx(ctx, func(tx *gorm.DB) error {
		processed := &models.ProcessedPayment{
			PaymentRef:          rec.Payment.PaymentRef,
			BookingID:           booking.ID,
			SnapshotID:          &snapshotID,
			State:               enums.FinalizationStateFinalized,
			AmountCapturedCents: rec.Payment.AmountCapturedCents.Int64(),
			FinalizedAt:         &finalizedAt,
		}
		if err := p.processed.WithTx(tx).Create(ctx, processed); err != nil {
			if db.IsUniqueViolation(err, "") {
				return ErrAlreadyProcessed
			}
			return fmt.Errorf("record processed payment: %w", err)
		}

		if err := p.snapshots.WithTx(tx).Create(ctx, row); err != nil {
			return fmt.Errorf("create snapshot: %w", err)
		}

		if _, err := p.ledger.RecordEntry(ctx, tx, ledger.RecordEntryInput{
			BookingID:  booking.ID,
			SnapshotID: snapshotID,
			Label:      booking.ProductLabel,
			Category:   booking.Category,
			Method:     method,
			Plan:       plan,
			EntryDate:  finalizedAt,
		}); err != nil {
			return err
		}

		updated, err := p.bookings.WithTx(tx).MarkFinalized(ctx, booking.ID, snapshotID, finalizedAt)
		if err != nil {
			return fmt.Errorf("finalize booking: %w", err)
		}
		if !updated {
			return ErrAlreadyProcessed
		}

		return p.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingFinalized,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Actor:         &outbox.ActorRef{Kind: "payment", ID: rec.Payment.PaymentRef},
			OccurredAt:    finalizedAt,
			Data: payloads.BookingFinalizedEvent{
				BookingID:        booking.ID,
				SnapshotID:       snapshotID,
				PaymentRef:       rec.Payment.PaymentRef,
				ProductKey:       booking.ProductKey,
				Category:         booking.Category,
				Strategy:         plan.Strategy,
				PlanStatus:       plan.Status,
				TotalCents:       plan.TotalCents.Int64(),
				DepositCents:     plan.DepositCents.Int64(),
				RemainingCents:   plan.RemainingCents.Int64(),
				PlanMonths:       plan.PlanMonths,
				PerMonthCents:    plan.PerMonthCents.Int64(),
				LastPaymentCents: plan.LastPaymentCents.Int64(),
				NextChargeAt:     plan.NextChargeAt,
				FinalDueAt:       plan.FinalDueAt,
				FinalizedAt:      finalizedAt,
			},
		})
	})
}
