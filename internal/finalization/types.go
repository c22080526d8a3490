package finalization

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/internal/billing"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

// Payment confirmation sources.
const (
	SourceWebhook = "webhook"
	SourceClient  = "client"
)

// snapshotNamespace derives snapshot ids from gateway payment references so
// replays of one payment address the same snapshot and agreement object.
var snapshotNamespace = uuid.MustParse("3b0f5c3e-8d1a-4f7e-9a51-2c6d7e8f9a10")

// SnapshotIDFor returns the snapshot id used when paymentRef finalizes.
func SnapshotIDFor(paymentRef string) uuid.UUID {
	return uuid.NewSHA1(snapshotNamespace, []byte(paymentRef))
}

// ConfirmedPayment is a gateway-confirmed capture for a booking.
type ConfirmedPayment struct {
	PaymentRef          string
	BookingID           uuid.UUID
	AmountCapturedCents money.Cents
	PayerAccountRef     string
	Method              enums.PaymentMethodType
	ConfirmedAt         time.Time
	Source              string
}

func (p ConfirmedPayment) validate() error {
	details := map[string]any{}
	if strings.TrimSpace(p.PaymentRef) == "" {
		details["payment_ref"] = "is required"
	}
	if p.BookingID == uuid.Nil {
		details["booking_id"] = "is required"
	}
	if p.AmountCapturedCents < 0 {
		details["amount_captured_cents"] = "must be >= 0"
	}
	if p.ConfirmedAt.IsZero() {
		details["confirmed_at"] = "is required"
	}
	if p.Method != "" && !p.Method.IsValid() {
		details["method"] = "is invalid"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid confirmed payment").WithDetails(details)
	}
	return nil
}

// StepStatus is the outcome of one collaborator call.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepResult reports one collaborator call.
type StepResult struct {
	Status      StepStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	RetryQueued bool       `json:"retry_queued,omitempty"`
}

// Result describes what a finalization run did. Payment capture is never
// undone, so a failed step shows up here rather than as an error.
type Result struct {
	State      enums.FinalizationState               `json:"state"`
	BookingID  uuid.UUID                             `json:"booking_id"`
	SnapshotID *uuid.UUID                            `json:"snapshot_id,omitempty"`
	PaymentRef string                                `json:"payment_ref"`
	Duplicate  bool                                  `json:"duplicate"`
	Plan       *billing.PaymentPlan                  `json:"plan,omitempty"`
	Steps      map[enums.FinalizationStep]StepResult `json:"steps,omitempty"`
}

// Succeeded reports whether step completed.
func (r Result) Succeeded(step enums.FinalizationStep) bool {
	return r.Steps[step].Status == StepSucceeded
}

// Record is the state the persister commits for one finalization.
type Record struct {
	Booking    *models.Booking
	Payment    ConfirmedPayment
	SnapshotID uuid.UUID
	Snapshot   billing.Snapshot
}

// RetryRequest asks the worker to re-run a failed collaborator step.
type RetryRequest struct {
	BookingID   uuid.UUID
	SnapshotID  uuid.UUID
	PaymentRef  string
	Reason      string
	RequestedAt time.Time
}
