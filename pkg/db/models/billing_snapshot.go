package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// BillingSnapshot is the immutable record of a computed plan. PaymentPlan is
// the human summary and PaymentPlanAuto the contract read by the recurring
// billing executor; the flat columns mirror PaymentPlanAuto for querying.
type BillingSnapshot struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID         uuid.UUID             `gorm:"column:booking_id;type:uuid;not null;index"`
	ProductKey        string                `gorm:"column:product_key;not null"`
	PaymentRef        string                `gorm:"column:payment_ref;not null"`
	PaymentAccountRef string                `gorm:"column:payment_account_ref"`
	Strategy          enums.PaymentStrategy `gorm:"column:strategy;not null"`
	PlanStatus        enums.PlanStatus      `gorm:"column:plan_status;not null"`
	TotalCents        int64                 `gorm:"column:total_cents;not null"`
	DepositCents      int64                 `gorm:"column:deposit_cents;not null"`
	RemainingCents    int64                 `gorm:"column:remaining_cents;not null"`
	PlanMonths        int                   `gorm:"column:plan_months;not null"`
	PerMonthCents     int64                 `gorm:"column:per_month_cents;not null"`
	LastPaymentCents  int64                 `gorm:"column:last_payment_cents;not null"`
	NextChargeAt      *time.Time            `gorm:"column:next_charge_at"`
	FinalDueAt        *time.Time            `gorm:"column:final_due_at"`
	PaymentPlan       json.RawMessage       `gorm:"column:payment_plan;type:jsonb;not null"`
	PaymentPlanAuto   json.RawMessage       `gorm:"column:payment_plan_auto;type:jsonb;not null"`
	Status            enums.SnapshotStatus  `gorm:"column:status;not null"`
	SupersededBy      *uuid.UUID            `gorm:"column:superseded_by;type:uuid"`
	SupersededAt      *time.Time            `gorm:"column:superseded_at"`
	ComputedAt        time.Time             `gorm:"column:computed_at;not null"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
}
