package agreements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/wedplan-backend/internal/repo"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
)

// Repository stores pointers to rendered agreements.
type Repository interface {
	Create(ctx context.Context, doc *models.AgreementDocument) error
	FindBySnapshot(ctx context.Context, snapshotID uuid.UUID) (*models.AgreementDocument, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds an agreement document repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

// Create inserts doc. A second document for the same snapshot is ignored so
// retried uploads stay idempotent.
func (r *repository) Create(ctx context.Context, doc *models.AgreementDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "snapshot_id"}}, DoNothing: true}).
		Create(doc).Error
}

func (r *repository) FindBySnapshot(ctx context.Context, snapshotID uuid.UUID) (*models.AgreementDocument, error) {
	var doc models.AgreementDocument
	if err := r.FindOne(ctx, &doc, "snapshot_id", snapshotID); err != nil {
		return nil, err
	}
	return &doc, nil
}
