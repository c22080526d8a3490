package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// BookingFinalizedEvent carries the committed plan for analytics and
// downstream billing.
type BookingFinalizedEvent struct {
	BookingID        uuid.UUID             `json:"booking_id"`
	SnapshotID       uuid.UUID             `json:"snapshot_id"`
	PaymentRef       string                `json:"payment_ref"`
	ProductKey       string                `json:"product_key"`
	Category         enums.ProductCategory `json:"category"`
	Strategy         enums.PaymentStrategy `json:"strategy"`
	PlanStatus       enums.PlanStatus      `json:"plan_status"`
	TotalCents       int64                 `json:"total_cents"`
	DepositCents     int64                 `json:"deposit_cents"`
	RemainingCents   int64                 `json:"remaining_cents"`
	PlanMonths       int                   `json:"plan_months"`
	PerMonthCents    int64                 `json:"per_month_cents"`
	LastPaymentCents int64                 `json:"last_payment_cents"`
	NextChargeAt     *time.Time            `json:"next_charge_at,omitempty"`
	FinalDueAt       *time.Time            `json:"final_due_at,omitempty"`
	FinalizedAt      time.Time             `json:"finalized_at"`
}

// BillingPlanSupersededEvent reports a recomputed plan replacing the current one.
type BillingPlanSupersededEvent struct {
	BookingID          uuid.UUID        `json:"booking_id"`
	PreviousSnapshotID uuid.UUID        `json:"previous_snapshot_id"`
	SnapshotID         uuid.UUID        `json:"snapshot_id"`
	PlanStatus         enums.PlanStatus `json:"plan_status"`
	PlanMonths         int              `json:"plan_months"`
	SupersededAt       time.Time        `json:"superseded_at"`
}

// AgreementRetryRequestedEvent asks the worker to regenerate and upload an
// agreement that failed during finalization.
type AgreementRetryRequestedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	SnapshotID  uuid.UUID `json:"snapshot_id"`
	PaymentRef  string    `json:"payment_ref"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NotificationRetryRequestedEvent asks the worker to resend confirmation mail.
type NotificationRetryRequestedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	SnapshotID  uuid.UUID `json:"snapshot_id"`
	PaymentRef  string    `json:"payment_ref"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
