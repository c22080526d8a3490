package finalization

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/wedplan-backend/internal/repo"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
)

// ProcessedPaymentRepository records gateway payments that have finalized a
// booking. payment_ref is the primary key.
type ProcessedPaymentRepository interface {
	WithTx(tx *gorm.DB) ProcessedPaymentRepository
	Create(ctx context.Context, payment *models.ProcessedPayment) error
	FindByRef(ctx context.Context, paymentRef string) (*models.ProcessedPayment, error)
}

type processedPaymentRepository struct {
	repo.Base
}

// NewProcessedPaymentRepository builds the repository on db.
func NewProcessedPaymentRepository(db *gorm.DB) ProcessedPaymentRepository {
	return &processedPaymentRepository{Base: repo.NewBase(db)}
}

func (r *processedPaymentRepository) WithTx(tx *gorm.DB) ProcessedPaymentRepository {
	if tx == nil {
		return r
	}
	return &processedPaymentRepository{Base: r.Bind(tx)}
}

func (r *processedPaymentRepository) Create(ctx context.Context, payment *models.ProcessedPayment) error {
	return r.DB(ctx).Create(payment).Error
}

func (r *processedPaymentRepository) FindByRef(ctx context.Context, paymentRef string) (*models.ProcessedPayment, error) {
	var payment models.ProcessedPayment
	if err := r.FindOne(ctx, &payment, "payment_ref", paymentRef); err != nil {
		return nil, err
	}
	return &payment, nil
}
