package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/internal/agreements"
	"github.com/angelmondragon/wedplan-backend/internal/billing"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

// QuoteInput asks for a plan preview.
type QuoteInput struct {
	ProductKey  string
	TotalCents  money.Cents
	Strategy    enums.PaymentStrategy
	WeddingDate *time.Time
}

// QuoteResult is the preview shown on the checkout screens.
type QuoteResult struct {
	ProductKey         string                  `json:"product_key"`
	DepositPercent     string                  `json:"deposit_percent"`
	FinalDueOffsetDays int                     `json:"final_due_offset_days"`
	PaymentPlan        billing.PaymentPlan     `json:"payment_plan"`
	PaymentPlanAuto    billing.PaymentPlanAuto `json:"payment_plan_auto"`
}

// CheckoutInput creates a booking draft and its PaymentIntent.
type CheckoutInput struct {
	ProductKey    string
	ProductLabel  string
	Category      enums.ProductCategory
	CustomerName  string
	CustomerEmail string
	TotalCents    money.Cents
	Strategy      enums.PaymentStrategy
	WeddingDate   *time.Time
	LineItems     []agreements.LineItem
}

// CheckoutResult is returned to the client to complete payment.
type CheckoutResult struct {
	BookingID       uuid.UUID           `json:"booking_id"`
	PaymentIntentID string              `json:"payment_intent_id"`
	ClientSecret    string              `json:"client_secret"`
	AmountDueCents  int64               `json:"amount_due_cents"`
	PaymentPlan     billing.PaymentPlan `json:"payment_plan"`
}

// BillingView is one stored snapshot in both forms.
type BillingView struct {
	BookingID       uuid.UUID               `json:"booking_id"`
	SnapshotID      uuid.UUID               `json:"snapshot_id"`
	Status          enums.SnapshotStatus    `json:"status"`
	PaymentRef      string                  `json:"payment_ref"`
	PaymentPlan     billing.PaymentPlan     `json:"payment_plan"`
	PaymentPlanAuto billing.PaymentPlanAuto `json:"payment_plan_auto"`
	SupersededBy    *uuid.UUID              `json:"superseded_by,omitempty"`
	ComputedAt      time.Time               `json:"computed_at"`
}

// SnapshotPage is one page of snapshot history.
type SnapshotPage struct {
	Snapshots  []BillingView `json:"snapshots"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func viewFromRow(row *models.BillingSnapshot) (BillingView, error) {
	snap, err := DecodeSnapshot(row)
	if err != nil {
		return BillingView{}, err
	}
	return BillingView{
		BookingID:       row.BookingID,
		SnapshotID:      row.ID,
		Status:          row.Status,
		PaymentRef:      row.PaymentRef,
		PaymentPlan:     snap.PaymentPlan,
		PaymentPlanAuto: snap.PaymentPlanAuto,
		SupersededBy:    row.SupersededBy,
		ComputedAt:      row.ComputedAt,
	}, nil
}
