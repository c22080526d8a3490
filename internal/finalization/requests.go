package finalization

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/internal/agreements"
	"github.com/angelmondragon/wedplan-backend/internal/billing"
	"github.com/angelmondragon/wedplan-backend/internal/notifications"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
)

func agreementRequest(booking *models.Booking, snapshotID uuid.UUID, snap billing.Snapshot, issuedAt time.Time) (agreements.Request, error) {
	items, err := agreements.DecodeLineItems(booking.LineItems)
	if err != nil {
		return agreements.Request{}, err
	}
	plan := snap.Plan
	return agreements.Request{
		BookingID:       booking.ID,
		SnapshotID:      snapshotID,
		ProductLabel:    booking.ProductLabel,
		CustomerName:    booking.CustomerName,
		TotalCents:      plan.TotalCents,
		DepositCents:    plan.DepositCents,
		RemainingCents:  plan.RemainingCents,
		FinalDueAt:      plan.FinalDueAt,
		LineItems:       items,
		PlanDescription: snap.PaymentPlan.Description,
		IssuedAt:        issuedAt,
	}, nil
}

func notificationRequest(booking *models.Booking, snapshotID uuid.UUID, snap billing.Snapshot) notifications.Request {
	plan := snap.Plan
	return notifications.Request{
		BookingID:          booking.ID,
		SnapshotID:         snapshotID,
		CustomerName:       booking.CustomerName,
		CustomerEmail:      booking.CustomerEmail,
		ProductLabel:       booking.ProductLabel,
		AmountChargedToday: plan.DueToday(),
		RemainingBalance:   plan.RemainingCents,
		FinalDueDate:       plan.FinalDueAt,
		PlanDescription:    snap.PaymentPlan.Description,
	}
}
