package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

// Request is the booking confirmation payload sent to the payer and the
// operator.
type Request struct {
	BookingID          uuid.UUID
	SnapshotID         uuid.UUID
	CustomerName       string
	CustomerEmail      string
	ProductLabel       string
	AmountChargedToday money.Cents
	RemainingBalance   money.Cents
	FinalDueDate       *time.Time
	PlanDescription    string
}
