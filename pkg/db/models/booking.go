package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// Booking is a checkout draft that becomes a contract once its payment is
// confirmed. Strategy and total never change after creation.
type Booking struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductKey         string                `gorm:"column:product_key;not null"`
	ProductLabel       string                `gorm:"column:product_label;not null"`
	Category           enums.ProductCategory `gorm:"column:category;not null"`
	CustomerName       string                `gorm:"column:customer_name;not null"`
	CustomerEmail      string                `gorm:"column:customer_email;not null"`
	TotalCents         int64                 `gorm:"column:total_cents;not null"`
	Strategy           enums.PaymentStrategy `gorm:"column:strategy;not null"`
	DepositPercent     decimal.Decimal       `gorm:"column:deposit_percent;type:numeric(5,4);not null"`
	FinalDueOffsetDays int                   `gorm:"column:final_due_offset_days;not null"`
	WeddingDate        *time.Time            `gorm:"column:wedding_date"`
	LineItems          json.RawMessage       `gorm:"column:line_items;type:jsonb"`
	Status             enums.BookingStatus   `gorm:"column:status;not null"`
	StripeCustomerID   *string               `gorm:"column:stripe_customer_id"`
	PaymentIntentID    *string               `gorm:"column:payment_intent_id;uniqueIndex"`
	AmountDueCents     int64                 `gorm:"column:amount_due_cents;not null"`
	CurrentSnapshotID  *uuid.UUID            `gorm:"column:current_snapshot_id;type:uuid"`
	FinalizedAt        *time.Time            `gorm:"column:finalized_at"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
