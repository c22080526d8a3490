package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// LedgerEntry is one purchase-ledger line written when a booking is finalized.
type LedgerEntry struct {
	ID                      uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID               uuid.UUID               `gorm:"column:booking_id;type:uuid;not null;index"`
	SnapshotID              uuid.UUID               `gorm:"column:snapshot_id;type:uuid;not null;uniqueIndex"`
	Label                   string                  `gorm:"column:label;not null"`
	Category                enums.ProductCategory   `gorm:"column:category;not null"`
	AmountChargedTodayCents int64                   `gorm:"column:amount_charged_today_cents;not null"`
	ContractTotalCents      int64                   `gorm:"column:contract_total_cents;not null"`
	PayFull                 bool                    `gorm:"column:pay_full;not null"`
	DepositCents            int64                   `gorm:"column:deposit_cents;not null"`
	MonthlyAmountCents      int64                   `gorm:"column:monthly_amount_cents;not null"`
	Months                  int                     `gorm:"column:months;not null"`
	Method                  enums.PaymentMethodType `gorm:"column:method;not null"`
	EntryDate               time.Time               `gorm:"column:entry_date;not null"`
	CreatedAt               time.Time               `gorm:"column:created_at;autoCreateTime"`
}
