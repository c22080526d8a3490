package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/internal/billing"
	"github.com/angelmondragon/wedplan-backend/pkg/calendar"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
)

// Service records purchase-ledger entries.
type Service interface {
	RecordEntry(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context, bookingID uuid.UUID) ([]models.LedgerEntry, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data a ledger entry requires.
type RecordEntryInput struct {
	BookingID  uuid.UUID
	SnapshotID uuid.UUID
	Label      string
	Category   enums.ProductCategory
	Method     enums.PaymentMethodType
	Plan       billing.Plan
	EntryDate  time.Time
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository required")
	}
	return &service{repo: repo}, nil
}

// RecordEntry writes the entry inside tx when one is supplied.
func (s *service) RecordEntry(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.LedgerEntry, error) {
	entry, err := BuildEntry(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ledger entry")
	}
	return entry, nil
}

func (s *service) ListEntries(ctx context.Context, bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	return s.repo.ListByBookingID(ctx, bookingID)
}

// BuildEntry maps a finalized plan onto the ledger row shape. The monthly
// amount is the regular installment; an uneven final payment stays on the
// snapshot.
func BuildEntry(input RecordEntryInput) (*models.LedgerEntry, error) {
	details := map[string]any{}
	if input.BookingID == uuid.Nil {
		details["booking_id"] = "is required"
	}
	if input.SnapshotID == uuid.Nil {
		details["snapshot_id"] = "is required"
	}
	if input.Label == "" {
		details["label"] = "is required"
	}
	if !input.Category.IsValid() {
		details["category"] = "is invalid"
	}
	if !input.Method.IsValid() {
		details["method"] = "is invalid"
	}
	if input.EntryDate.IsZero() {
		details["entry_date"] = "is required"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger entry").WithDetails(details)
	}

	plan := input.Plan
	return &models.LedgerEntry{
		ID:                      uuid.New(),
		BookingID:               input.BookingID,
		SnapshotID:              input.SnapshotID,
		Label:                   input.Label,
		Category:                input.Category,
		AmountChargedTodayCents: plan.DueToday().Int64(),
		ContractTotalCents:      plan.TotalCents.Int64(),
		PayFull:                 plan.Strategy == enums.PaymentStrategyPayInFull,
		DepositCents:            plan.DepositCents.Int64(),
		MonthlyAmountCents:      plan.PerMonthCents.Int64(),
		Months:                  plan.PlanMonths,
		Method:                  input.Method,
		EntryDate:               calendar.DateOnly(input.EntryDate),
	}, nil
}
