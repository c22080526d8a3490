package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/internal/repo"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// Repository persists booking drafts and their finalization state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Booking, error)
	FindStripeCustomerID(ctx context.Context, email string) (string, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, customerID, paymentIntentID string) error
	MarkFinalized(ctx context.Context, id, snapshotID uuid.UUID, finalizedAt time.Time) (bool, error)
	ApplyCorrection(ctx context.Context, id, snapshotID uuid.UUID, weddingDate time.Time) error
}

type repository struct {
	repo.Base
}

// NewRepository builds a bookings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return r.DB(ctx).Create(booking).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.FindOne(ctx, &booking, "id", id); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.FindOne(ctx, &booking, "payment_intent_id", paymentIntentID); err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindStripeCustomerID returns the Stripe customer most recently attached to a
// booking for email, or "" when the couple has not checked out before.
func (r *repository) FindStripeCustomerID(ctx context.Context, email string) (string, error) {
	var ids []string
	err := r.DB(ctx).Model(&models.Booking{}).
		Where("customer_email = ? AND stripe_customer_id IS NOT NULL AND stripe_customer_id <> ''", email).
		Order("created_at DESC").
		Limit(1).
		Pluck("stripe_customer_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

func (r *repository) SetPaymentIntent(ctx context.Context, id uuid.UUID, customerID, paymentIntentID string) error {
	res := r.DB(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stripe_customer_id": customerID,
			"payment_intent_id":  paymentIntentID,
			"updated_at":         time.Now().UTC(),
		})
	return repo.MustAffect(res)
}

// MarkFinalized moves a pending booking to finalized. It reports false when
// the booking was already finalized.
func (r *repository) MarkFinalized(ctx context.Context, id, snapshotID uuid.UUID, finalizedAt time.Time) (bool, error) {
	res := r.DB(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, enums.BookingStatusPendingPayment).
		Updates(map[string]any{
			"status":              enums.BookingStatusFinalized,
			"current_snapshot_id": snapshotID,
			"finalized_at":        finalizedAt,
			"updated_at":          finalizedAt,
		})
	return repo.Transitioned(res)
}

// ApplyCorrection points a finalized booking at a recomputed snapshot and
// records the corrected wedding date.
func (r *repository) ApplyCorrection(ctx context.Context, id, snapshotID uuid.UUID, weddingDate time.Time) error {
	res := r.DB(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, enums.BookingStatusFinalized).
		Updates(map[string]any{
			"current_snapshot_id": snapshotID,
			"wedding_date":        weddingDate,
			"updated_at":          time.Now().UTC(),
		})
	return repo.MustAffect(res)
}
