package agreements

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

// LineItem is one priced row of the booked package.
type LineItem struct {
	Description string      `json:"description" validate:"required,max=200"`
	AmountCents money.Cents `json:"amount_cents" validate:"gte=0"`
}

// Request carries everything the agreement document prints.
type Request struct {
	BookingID       uuid.UUID
	SnapshotID      uuid.UUID
	ProductLabel    string
	CustomerName    string
	TotalCents      money.Cents
	DepositCents    money.Cents
	RemainingCents  money.Cents
	FinalDueAt      *time.Time
	LineItems       []LineItem
	PlanDescription string
	IssuedAt        time.Time
}

// DecodeLineItems parses the line_items column of a booking. An empty column
// yields no items.
func DecodeLineItems(raw json.RawMessage) ([]LineItem, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}
	return items, nil
}

// ObjectKey is the storage path of the agreement rendered for snapshotID.
func ObjectKey(prefix string, bookingID, snapshotID uuid.UUID) string {
	if prefix == "" {
		return fmt.Sprintf("%s/%s.pdf", bookingID, snapshotID)
	}
	return fmt.Sprintf("%s/%s/%s.pdf", prefix, bookingID, snapshotID)
}
