package finalization

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/internal/billing"
	"github.com/angelmondragon/wedplan-backend/internal/bookings"
	"github.com/angelmondragon/wedplan-backend/internal/ledger"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox"
)

var _ SnapshotPersister = (*Persister)(nil)

type persistFixture struct {
	conn      *gorm.DB
	persister *Persister
	bookings  bookings.Repository
	snapshots bookings.SnapshotRepository
	ledger    ledger.Service
}

func newPersistFixture(t *testing.T) persistFixture {
	t.Helper()
	conn := dbtest.Open(t)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	f := persistFixture{
		conn:      conn,
		bookings:  bookings.NewRepository(conn),
		snapshots: bookings.NewSnapshotRepository(conn),
		ledger:    ledgerSvc,
	}
	f.persister, err = NewPersister(PersisterParams{
		DB:        db.NewFromGorm(conn),
		Processed: NewProcessedPaymentRepository(conn),
		Bookings:  f.bookings,
		Snapshots: f.snapshots,
		Ledger:    ledgerSvc,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	return f
}

func recordFor(t *testing.T, booking *models.Booking) Record {
	t.Helper()
	payment := paymentFor(booking)
	plan, err := billing.ComputePlan(billing.PlanInput{
		TotalCents:         money.Cents(booking.TotalCents),
		Strategy:           booking.Strategy,
		DepositPercent:     booking.DepositPercent,
		Now:                payment.ConfirmedAt,
		WeddingDate:        booking.WeddingDate,
		FinalDueOffsetDays: booking.FinalDueOffsetDays,
	})
	require.NoError(t, err)
	return Record{
		Booking:    booking,
		Payment:    payment,
		SnapshotID: SnapshotIDFor(payment.PaymentRef),
		Snapshot:   billing.BuildSnapshot(plan, booking.ProductKey, payment.PayerAccountRef),
	}
}

func TestPersisterCommitsFinalization(t *testing.T) {
	f := newPersistFixture(t)
	ctx := context.Background()
	booking := venueBooking("pi_persist")
	require.NoError(t, f.bookings.Create(ctx, booking))

	rec := recordFor(t, booking)
	require.NoError(t, f.persister.Persist(ctx, rec))

	stored, err := f.bookings.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusFinalized, stored.Status)
	require.NotNil(t, stored.CurrentSnapshotID)
	assert.Equal(t, rec.SnapshotID, *stored.CurrentSnapshotID)

	snap, err := f.snapshots.FindCurrent(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, snap.PlanMonths)
	assert.Equal(t, "pi_persist", snap.PaymentRef)

	decoded, err := bookings.DecodeSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, rec.Snapshot.Plan.LastPaymentCents, decoded.Plan.LastPaymentCents)

	entries, err := f.ledger.ListEntries(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(25000), entries[0].AmountChargedTodayCents)
	assert.Equal(t, "The Grand Hall", entries[0].Label)

	processed, err := NewProcessedPaymentRepository(f.conn).FindByRef(ctx, "pi_persist")
	require.NoError(t, err)
	assert.Equal(t, enums.FinalizationStateFinalized, processed.State)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventBookingFinalized).Find(&events).Error)
	require.Len(t, events, 1)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var payload map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "pi_persist", payload["payment_ref"])
	assert.EqualValues(t, 8, payload["plan_months"])
}

func TestPersisterRejectsSecondRunForPayment(t *testing.T) {
	f := newPersistFixture(t)
	ctx := context.Background()
	booking := venueBooking("pi_twice")
	require.NoError(t, f.bookings.Create(ctx, booking))

	rec := recordFor(t, booking)
	require.NoError(t, f.persister.Persist(ctx, rec))
	err := f.persister.Persist(ctx, rec)
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	entries, err := f.ledger.ListEntries(ctx, booking.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPersisterRollsBackWhenBookingAlreadyFinalized(t *testing.T) {
	f := newPersistFixture(t)
	ctx := context.Background()
	booking := venueBooking("pi_late")
	booking.Status = enums.BookingStatusFinalized
	require.NoError(t, f.bookings.Create(ctx, booking))

	err := f.persister.Persist(ctx, recordFor(t, booking))
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = NewProcessedPaymentRepository(f.conn).FindByRef(ctx, "pi_late")
	assert.True(t, db.IsNotFound(err), "processed payment row must roll back")
	entries, err := f.ledger.ListEntries(ctx, booking.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOutboxRetryQueueDeduplicatesPending(t *testing.T) {
	conn := dbtest.Open(t)
	queue, err := NewOutboxRetryQueue(db.NewFromGorm(conn), outbox.NewService(outbox.NewRepository(conn), logger.Nop()))
	require.NoError(t, err)

	booking := venueBooking("pi_q")
	req := RetryRequest{
		BookingID:   booking.ID,
		SnapshotID:  SnapshotIDFor("pi_q"),
		PaymentRef:  "pi_q",
		Reason:      "gcs unavailable",
		RequestedAt: confirmedAt,
	}
	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, enums.FinalizationStepAgreement, req))
	require.NoError(t, queue.Enqueue(ctx, enums.FinalizationStepAgreement, req))
	require.NoError(t, queue.Enqueue(ctx, enums.FinalizationStepNotification, req))

	var rows []models.OutboxEvent
	require.NoError(t, conn.Order("event_type").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.EventAgreementRetryRequested, rows[0].EventType)
	assert.Equal(t, enums.EventNotificationRetryRequested, rows[1].EventType)
	assert.Equal(t, enums.AggregateBillingSnapshot, rows[0].AggregateType)
	assert.Equal(t, req.SnapshotID, rows[0].AggregateID)

	err = queue.Enqueue(ctx, enums.FinalizationStepPersistence, req)
	require.Error(t, err)
}
