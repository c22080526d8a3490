package finalization

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/internal/agreements"
	"github.com/angelmondragon/wedplan-backend/internal/notifications"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

var confirmedAt = time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

func venueBooking(paymentRef string) *models.Booking {
	wedding := time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)
	items, _ := json.Marshal([]agreements.LineItem{{Description: "Ballroom", AmountCents: money.Cents(100000)}})
	return &models.Booking{
		ID:                 uuid.New(),
		ProductKey:         "venue-grand-hall",
		ProductLabel:       "The Grand Hall",
		Category:           enums.ProductCategoryVenue,
		CustomerName:       "Jamie Rivera",
		CustomerEmail:      "jamie@example.com",
		TotalCents:         100000,
		Strategy:           enums.PaymentStrategyDepositThenMonthly,
		DepositPercent:     decimal.RequireFromString("0.25"),
		FinalDueOffsetDays: 35,
		WeddingDate:        &wedding,
		LineItems:          items,
		Status:             enums.BookingStatusPendingPayment,
		PaymentIntentID:    &paymentRef,
		AmountDueCents:     25000,
	}
}

func paymentFor(booking *models.Booking) ConfirmedPayment {
	return ConfirmedPayment{
		PaymentRef:          *booking.PaymentIntentID,
		BookingID:           booking.ID,
		AmountCapturedCents: money.Cents(booking.AmountDueCents),
		PayerAccountRef:     "pm_123",
		Method:              enums.PaymentMethodCard,
		ConfirmedAt:         confirmedAt,
		Source:              SourceWebhook,
	}
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
	err      error
}

func newFakeBookings(items ...*models.Booking) *fakeBookings {
	f := &fakeBookings{bookings: map[uuid.UUID]*models.Booking{}}
	for _, b := range items {
		f.bookings[b.ID] = b
	}
	return f
}

func (f *fakeBookings) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *b
	return &clone, nil
}

type fakePersister struct {
	mu        sync.Mutex
	records   []Record
	err       error
	onPersist func()
}

func (f *fakePersister) Persist(ctx context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onPersist != nil {
		f.onPersist()
	}
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeAgreements struct {
	mu       sync.Mutex
	requests []agreements.Request
	err      error
}

func (f *fakeAgreements) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAgreements) Generate(ctx context.Context, req agreements.Request) (*models.AgreementDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.AgreementDocument{ID: uuid.New(), BookingID: req.BookingID, SnapshotID: req.SnapshotID}, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	requests []notifications.Request
	err      error
	panics   bool
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeNotifier) Notify(ctx context.Context, req notifications.Request) error {
	if f.panics {
		panic("template exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.err
}

type queuedRetry struct {
	step enums.FinalizationStep
	req  RetryRequest
}

type fakeRetryQueue struct {
	mu     sync.Mutex
	queued []queuedRetry
	err    error
}

func (f *fakeRetryQueue) Enqueue(ctx context.Context, step enums.FinalizationStep, req RetryRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.queued = append(f.queued, queuedRetry{step: step, req: req})
	return nil
}

type fakeGuardStore struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func newFakeGuardStore() *fakeGuardStore {
	return &fakeGuardStore{keys: map[string]bool{}}
}

func (f *fakeGuardStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeGuardStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.keys, k)
	}
	return nil
}

func (f *fakeGuardStore) FinalizationKey(paymentRef string) string {
	return "wp:finalization:" + paymentRef
}

func (f *fakeGuardStore) has(paymentRef string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[f.FinalizationKey(paymentRef)]
}
