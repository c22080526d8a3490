package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// BillingPlanRow mirrors the billing_plans BigQuery schema. One row is
// written per committed or superseding snapshot.
type BillingPlanRow struct {
	EventID            string                  `bigquery:"event_id"`
	EventType          string                  `bigquery:"event_type"`
	OccurredAt         time.Time               `bigquery:"occurred_at"`
	BookingID          string                  `bigquery:"booking_id"`
	SnapshotID         string                  `bigquery:"snapshot_id"`
	PreviousSnapshotID cbigquery.NullString    `bigquery:"previous_snapshot_id"`
	PaymentRef         cbigquery.NullString    `bigquery:"payment_ref"`
	ProductKey         cbigquery.NullString    `bigquery:"product_key"`
	Category           cbigquery.NullString    `bigquery:"category"`
	Strategy           cbigquery.NullString    `bigquery:"strategy"`
	PlanStatus         string                  `bigquery:"plan_status"`
	TotalCents         cbigquery.NullInt64     `bigquery:"total_cents"`
	DepositCents       cbigquery.NullInt64     `bigquery:"deposit_cents"`
	RemainingCents     cbigquery.NullInt64     `bigquery:"remaining_cents"`
	PlanMonths         int64                   `bigquery:"plan_months"`
	PerMonthCents      cbigquery.NullInt64     `bigquery:"per_month_cents"`
	LastPaymentCents   cbigquery.NullInt64     `bigquery:"last_payment_cents"`
	NextChargeAt       cbigquery.NullTimestamp `bigquery:"next_charge_at"`
	FinalDueAt         cbigquery.NullTimestamp `bigquery:"final_due_at"`
	Unresolved         bool                    `bigquery:"unresolved"`
	Payload            cbigquery.NullJSON      `bigquery:"payload"`
}
