package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/internal/repo"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
)

// Repository stores purchase-ledger entries. Entries are append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.LedgerEntry, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.DB(ctx).Create(entry).Error
}

// ListByBookingID returns entries in ledger order: by entry date, then by
// insertion.
func (r *repository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.DB(ctx).
		Where("booking_id = ?", bookingID).
		Order("entry_date ASC, created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
