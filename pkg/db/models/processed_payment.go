package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// ProcessedPayment is the durable idempotency record for a gateway payment.
// PaymentRef is unique, so a second finalization for the same payment fails
// its insert.
type ProcessedPayment struct {
	PaymentRef          string                  `gorm:"column:payment_ref;primaryKey"`
	BookingID           uuid.UUID               `gorm:"column:booking_id;type:uuid;not null"`
	SnapshotID          *uuid.UUID              `gorm:"column:snapshot_id;type:uuid"`
	State               enums.FinalizationState `gorm:"column:state;not null"`
	AmountCapturedCents int64                   `gorm:"column:amount_captured_cents;not null"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime"`
	FinalizedAt         *time.Time              `gorm:"column:finalized_at"`
}
