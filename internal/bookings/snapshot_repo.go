package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/internal/repo"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/pagination"
)

// SnapshotRepository stores billing snapshots. Rows are append-only apart
// from the supersede transition.
type SnapshotRepository interface {
	WithTx(tx *gorm.DB) SnapshotRepository
	Create(ctx context.Context, snapshot *models.BillingSnapshot) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillingSnapshot, error)
	FindCurrent(ctx context.Context, bookingID uuid.UUID) (*models.BillingSnapshot, error)
	List(ctx context.Context, bookingID uuid.UUID, params pagination.Params) ([]models.BillingSnapshot, string, error)
	Supersede(ctx context.Context, id, supersededBy uuid.UUID, at time.Time) (bool, error)
	ListUnresolved(ctx context.Context, limit int) ([]models.BillingSnapshot, error)
	CountUnresolved(ctx context.Context) (int64, error)
}

type snapshotRepository struct {
	repo.Base
}

// NewSnapshotRepository builds a snapshot repository bound to the provided DB.
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{Base: repo.NewBase(db)}
}

func (r *snapshotRepository) WithTx(tx *gorm.DB) SnapshotRepository {
	if tx == nil {
		return r
	}
	return &snapshotRepository{Base: r.Bind(tx)}
}

func (r *snapshotRepository) Create(ctx context.Context, snapshot *models.BillingSnapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	return r.DB(ctx).Create(snapshot).Error
}

func (r *snapshotRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.BillingSnapshot, error) {
	var snapshot models.BillingSnapshot
	if err := r.FindOne(ctx, &snapshot, "id", id); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *snapshotRepository) FindCurrent(ctx context.Context, bookingID uuid.UUID) (*models.BillingSnapshot, error) {
	var snapshot models.BillingSnapshot
	err := r.DB(ctx).
		Where("booking_id = ? AND status = ?", bookingID, enums.SnapshotStatusCurrent).
		Order("computed_at DESC").
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// List returns the booking's snapshot history, newest first, and the cursor
// for the next page when more rows exist.
func (r *snapshotRepository) List(ctx context.Context, bookingID uuid.UUID, params pagination.Params) ([]models.BillingSnapshot, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.DB(ctx).Where("booking_id = ?", bookingID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.BillingSnapshot
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	rows, next := pagination.Trim(rows, params.Limit, func(row models.BillingSnapshot) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return rows, next, nil
}

// Supersede retires a current snapshot. It reports false when the row was
// not current anymore, which callers treat as a concurrent correction.
func (r *snapshotRepository) Supersede(ctx context.Context, id, supersededBy uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).Model(&models.BillingSnapshot{}).
		Where("id = ? AND status = ?", id, enums.SnapshotStatusCurrent).
		Updates(map[string]any{
			"status":        enums.SnapshotStatusSuperseded,
			"superseded_by": supersededBy,
			"superseded_at": at,
		})
	return repo.Transitioned(res)
}

// ListUnresolved returns current deposit plans that still carry a balance
// but have no installments scheduled.
func (r *snapshotRepository) ListUnresolved(ctx context.Context, limit int) ([]models.BillingSnapshot, error) {
	var rows []models.BillingSnapshot
	err := r.unresolved(ctx).
		Order("computed_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountUnresolved counts every row ListUnresolved would match, ignoring its limit.
func (r *snapshotRepository) CountUnresolved(ctx context.Context) (int64, error) {
	var n int64
	if err := r.unresolved(ctx).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *snapshotRepository) unresolved(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Model(&models.BillingSnapshot{}).
		Where("status = ? AND plan_status = ? AND plan_months = 0", enums.SnapshotStatusCurrent, enums.PlanStatusActive)
}
