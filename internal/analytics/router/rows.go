package router

import (
	"encoding/json"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/wedplan-backend/internal/analytics/types"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/outbox/payloads"
)

func bookingFinalizedRow(env types.Envelope, e *payloads.BookingFinalizedEvent) types.BillingPlanRow {
	return types.BillingPlanRow{
		EventID:          env.EventID,
		EventType:        string(env.EventType),
		OccurredAt:       occurredAt(env, e.FinalizedAt),
		BookingID:        e.BookingID.String(),
		SnapshotID:       e.SnapshotID.String(),
		PaymentRef:       optString(e.PaymentRef),
		ProductKey:       optString(e.ProductKey),
		Category:         optString(string(e.Category)),
		Strategy:         optString(string(e.Strategy)),
		PlanStatus:       string(e.PlanStatus),
		TotalCents:       cents(e.TotalCents),
		DepositCents:     cents(e.DepositCents),
		RemainingCents:   cents(e.RemainingCents),
		PlanMonths:       int64(e.PlanMonths),
		PerMonthCents:    cents(e.PerMonthCents),
		LastPaymentCents: cents(e.LastPaymentCents),
		NextChargeAt:     optTime(e.NextChargeAt),
		FinalDueAt:       optTime(e.FinalDueAt),
		Unresolved:       unresolved(e.PlanStatus, e.PlanMonths) && e.RemainingCents > 0,
	}
}

// Superseding rows carry the schedule shape only. Amounts never change on a
// recompute and stay on the booking_finalized row.
func planSupersededRow(env types.Envelope, e *payloads.BillingPlanSupersededEvent) types.BillingPlanRow {
	return types.BillingPlanRow{
		EventID:            env.EventID,
		EventType:          string(env.EventType),
		OccurredAt:         occurredAt(env, e.SupersededAt),
		BookingID:          e.BookingID.String(),
		SnapshotID:         e.SnapshotID.String(),
		PreviousSnapshotID: optString(e.PreviousSnapshotID.String()),
		PlanStatus:         string(e.PlanStatus),
		PlanMonths:         int64(e.PlanMonths),
		Unresolved:         unresolved(e.PlanStatus, e.PlanMonths),
	}
}

// unresolved marks an active plan with nothing scheduled, which happens when
// a deposit booking is finalized before the wedding date is known.
func unresolved(status enums.PlanStatus, months int) bool {
	return status == enums.PlanStatusActive && months == 0
}

func occurredAt(env types.Envelope, domain time.Time) time.Time {
	if env.OccurredAt.IsZero() {
		return domain.UTC()
	}
	return env.OccurredAt.UTC()
}

func optString(v string) cbigquery.NullString {
	v = strings.TrimSpace(v)
	return cbigquery.NullString{StringVal: v, Valid: v != ""}
}

func cents(v int64) cbigquery.NullInt64 {
	return cbigquery.NullInt64{Int64: v, Valid: true}
}

func optTime(v *time.Time) cbigquery.NullTimestamp {
	if v == nil || v.IsZero() {
		return cbigquery.NullTimestamp{}
	}
	return cbigquery.NullTimestamp{Timestamp: v.UTC(), Valid: true}
}

func rawJSON(raw json.RawMessage) cbigquery.NullJSON {
	if len(raw) == 0 {
		return cbigquery.NullJSON{}
	}
	return cbigquery.NullJSON{JSONVal: string(raw), Valid: true}
}
