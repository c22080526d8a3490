package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
)

const unresolvedPlansLimit = 500

type unresolvedSnapshotLister interface {
	ListUnresolved(ctx context.Context, limit int) ([]models.BillingSnapshot, error)
	CountUnresolved(ctx context.Context) (int64, error)
}

type unresolvedGauge interface {
	SetUnresolvedPlans(n int)
}

// UnresolvedPlansJobParams configures the unresolved plan report.
type UnresolvedPlansJobParams struct {
	Logger    *logger.Logger
	Snapshots unresolvedSnapshotLister
	Metrics   unresolvedGauge
	Limit     int
}

// NewUnresolvedPlansJob reports deposit plans finalized without a wedding
// date. They owe a balance but have no installments until an operator
// recomputes them with the date.
func NewUnresolvedPlansJob(params UnresolvedPlansJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot repository required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = unresolvedPlansLimit
	}
	return &unresolvedPlansJob{
		logg:      params.Logger,
		snapshots: params.Snapshots,
		metrics:   params.Metrics,
		limit:     limit,
	}, nil
}

type unresolvedPlansJob struct {
	logg      *logger.Logger
	snapshots unresolvedSnapshotLister
	metrics   unresolvedGauge
	limit     int
}

func (j *unresolvedPlansJob) Name() string { return "unresolved_plans" }

func (j *unresolvedPlansJob) Run(ctx context.Context) error {
	total, err := j.snapshots.CountUnresolved(ctx)
	if err != nil {
		return fmt.Errorf("count unresolved plans: %w", err)
	}
	if j.metrics != nil {
		j.metrics.SetUnresolvedPlans(int(total))
	}

	rows, err := j.snapshots.ListUnresolved(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("list unresolved plans: %w", err)
	}

	for _, row := range rows {
		rowCtx := j.logg.WithBookingID(ctx, row.BookingID.String())
		j.logg.Warn(j.logg.WithFields(rowCtx, map[string]any{
			"event":           "billing.unresolved_plan",
			"snapshot_id":     row.ID.String(),
			"remaining_cents": row.RemainingCents,
			"computed_at":     row.ComputedAt,
		}), "deposit plan has no installment schedule")
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"unresolved": total,
		"listed":     len(rows),
		"truncated":  int64(len(rows)) < total,
	}), "unresolved plan report complete")
	return nil
}
