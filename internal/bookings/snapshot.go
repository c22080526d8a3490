package bookings

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/internal/billing"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// NewSnapshotRecord maps a built snapshot onto its table row. The flat plan
// columns and both JSON forms come from the same snapshot value.
func NewSnapshotRecord(id, bookingID uuid.UUID, paymentRef string, snap billing.Snapshot, computedAt time.Time) (*models.BillingSnapshot, error) {
	human, err := json.Marshal(snap.PaymentPlan)
	if err != nil {
		return nil, fmt.Errorf("encode payment plan: %w", err)
	}
	auto, err := json.Marshal(snap.PaymentPlanAuto)
	if err != nil {
		return nil, fmt.Errorf("encode payment plan auto: %w", err)
	}

	plan := snap.Plan
	return &models.BillingSnapshot{
		ID:                id,
		BookingID:         bookingID,
		ProductKey:        snap.ProductKey,
		PaymentRef:        paymentRef,
		PaymentAccountRef: snap.PaymentAccountRef,
		Strategy:          plan.Strategy,
		PlanStatus:        plan.Status,
		TotalCents:        plan.TotalCents.Int64(),
		DepositCents:      plan.DepositCents.Int64(),
		RemainingCents:    plan.RemainingCents.Int64(),
		PlanMonths:        plan.PlanMonths,
		PerMonthCents:     plan.PerMonthCents.Int64(),
		LastPaymentCents:  plan.LastPaymentCents.Int64(),
		NextChargeAt:      plan.NextChargeAt,
		FinalDueAt:        plan.FinalDueAt,
		PaymentPlan:       human,
		PaymentPlanAuto:   auto,
		Status:            enums.SnapshotStatusCurrent,
		ComputedAt:        computedAt.UTC(),
	}, nil
}

// DecodeSnapshot rebuilds the snapshot value stored on row. The plan is
// recovered from the machine record so a tampered row fails validation.
func DecodeSnapshot(row *models.BillingSnapshot) (billing.Snapshot, error) {
	var human billing.PaymentPlan
	if err := json.Unmarshal(row.PaymentPlan, &human); err != nil {
		return billing.Snapshot{}, fmt.Errorf("decode payment plan: %w", err)
	}
	var auto billing.PaymentPlanAuto
	if err := json.Unmarshal(row.PaymentPlanAuto, &auto); err != nil {
		return billing.Snapshot{}, fmt.Errorf("decode payment plan auto: %w", err)
	}
	plan, err := auto.Plan()
	if err != nil {
		return billing.Snapshot{}, err
	}
	return billing.Snapshot{
		ProductKey:        row.ProductKey,
		PaymentAccountRef: row.PaymentAccountRef,
		Plan:              plan,
		PaymentPlan:       human,
		PaymentPlanAuto:   auto,
	}, nil
}
