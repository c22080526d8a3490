package finalization

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wedplan-backend/internal/agreements"
	"github.com/angelmondragon/wedplan-backend/internal/billing"
	"github.com/angelmondragon/wedplan-backend/internal/notifications"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/db/models"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/logger"
	"github.com/angelmondragon/wedplan-backend/pkg/metrics"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

// BookingStore loads the booking a payment confirms.
type BookingStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// SnapshotPersister commits the snapshot and ledger entry for a finalization.
// It returns ErrAlreadyProcessed when the payment was committed before.
type SnapshotPersister interface {
	Persist(ctx context.Context, rec Record) error
}

// AgreementGenerator renders and stores the booking agreement.
type AgreementGenerator interface {
	Generate(ctx context.Context, req agreements.Request) (*models.AgreementDocument, error)
}

// Notifier sends the booking confirmation.
type Notifier interface {
	Notify(ctx context.Context, req notifications.Request) error
}

// RetryQueue schedules failed steps for another attempt.
type RetryQueue interface {
	Enqueue(ctx context.Context, step enums.FinalizationStep, req RetryRequest) error
}

// Service finalizes bookings once their payment is confirmed.
type Service struct {
	guard      *Guard
	bookings   BookingStore
	persister  SnapshotPersister
	agreements AgreementGenerator
	notifier   Notifier
	retries    RetryQueue
	metrics    *metrics.FinalizationMetrics
	logg       *logger.Logger
	clock      func() time.Time
}

// ServiceParams groups the finalizer dependencies. Agreements may be nil to
// skip agreement rendering.
type ServiceParams struct {
	Guard      *Guard
	Bookings   BookingStore
	Persister  SnapshotPersister
	Agreements AgreementGenerator
	Notifier   Notifier
	Retries    RetryQueue
	Metrics    *metrics.FinalizationMetrics
	Logger     *logger.Logger
}

// NewService validates and wires the finalizer.
func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Guard == nil:
		return nil, errors.New("finalization guard required")
	case p.Bookings == nil:
		return nil, errors.New("booking store required")
	case p.Persister == nil:
		return nil, errors.New("persister required")
	case p.Notifier == nil:
		return nil, errors.New("notifier required")
	case p.Retries == nil:
		return nil, errors.New("retry queue required")
	case p.Logger == nil:
		return nil, errors.New("logger required")
	}
	return &Service{
		guard:      p.Guard,
		bookings:   p.Bookings,
		persister:  p.Persister,
		agreements: p.Agreements,
		notifier:   p.Notifier,
		retries:    p.Retries,
		metrics:    p.Metrics,
		logg:       p.Logger,
		clock:      time.Now,
	}, nil
}

// Finalize turns a confirmed payment into a finalized booking. Duplicate
// deliveries return a Result with Duplicate set and no error. Collaborator
// failures are reported per step; only invalid input and a missing booking
// are returned as errors.
func (s *Service) Finalize(ctx context.Context, payment ConfirmedPayment) (Result, error) {
	if err := payment.validate(); err != nil {
		return Result{}, err
	}
	// finalization is not cancelable once the payment is captured
	ctx = context.WithoutCancel(ctx)
	ctx = s.logg.WithPaymentRef(ctx, payment.PaymentRef)
	ctx = s.logg.WithBookingID(ctx, payment.BookingID.String())
	ctx = s.logg.WithField(ctx, "source", payment.Source)
	started := s.clock()
	defer func() { s.metrics.ObserveDuration(s.clock().Sub(started)) }()

	result := Result{
		State:      enums.FinalizationStateNotStarted,
		BookingID:  payment.BookingID,
		PaymentRef: payment.PaymentRef,
	}

	if !s.guard.Begin(ctx, payment.PaymentRef) {
		return s.duplicate(ctx, result, nil), nil
	}

	booking, err := s.bookings.FindByID(ctx, payment.BookingID)
	if err != nil {
		s.guard.Abandon(ctx, payment.PaymentRef)
		s.metrics.IncOutcome(metrics.OutcomeFailed)
		if db.IsNotFound(err) {
			return result, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking.Status == enums.BookingStatusFinalized {
		s.guard.Finish(payment.PaymentRef)
		return s.duplicate(ctx, result, booking.CurrentSnapshotID), nil
	}
	if booking.PaymentIntentID != nil && *booking.PaymentIntentID != payment.PaymentRef {
		s.guard.Abandon(ctx, payment.PaymentRef)
		s.metrics.IncOutcome(metrics.OutcomeFailed)
		return result, pkgerrors.New(pkgerrors.CodeConflict, "payment does not belong to booking").
			WithDetails(map[string]any{"payment_ref": payment.PaymentRef})
	}
	if payment.AmountCapturedCents.Int64() != booking.AmountDueCents {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"captured_cents": payment.AmountCapturedCents.Int64(),
			"due_cents":      booking.AmountDueCents,
		}), "captured amount differs from amount due")
	}

	plan, err := billing.ComputePlan(billing.PlanInput{
		TotalCents:         money.Cents(booking.TotalCents),
		Strategy:           booking.Strategy,
		DepositPercent:     booking.DepositPercent,
		Now:                payment.ConfirmedAt,
		WeddingDate:        booking.WeddingDate,
		FinalDueOffsetDays: booking.FinalDueOffsetDays,
	})
	if err != nil {
		s.guard.Abandon(ctx, payment.PaymentRef)
		s.metrics.IncOutcome(metrics.OutcomeFailed)
		return result, err
	}

	result.State = enums.FinalizationStateRunning
	snapshotID := SnapshotIDFor(payment.PaymentRef)
	snap := billing.BuildSnapshot(plan, booking.ProductKey, payment.PayerAccountRef)
	rec := Record{Booking: booking, Payment: payment, SnapshotID: snapshotID, Snapshot: snap}
	result.SnapshotID = &snapshotID
	result.Plan = &snap.PaymentPlan

	// the processed payment row is claimed before any side effect runs
	if err := callStep(ctx, func(ctx context.Context) error { return s.persister.Persist(ctx, rec) }); err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			s.guard.Finish(payment.PaymentRef)
			return s.duplicate(ctx, result, &snapshotID), nil
		}
		s.guard.Abandon(ctx, payment.PaymentRef)
		s.metrics.IncStepFailure(enums.FinalizationStepPersistence.String())
		s.metrics.IncOutcome(metrics.OutcomeFailed)
		s.logg.Error(s.logg.WithField(ctx, "step", enums.FinalizationStepPersistence.String()), "finalization left running, awaiting replay", err)
		result.Steps = map[enums.FinalizationStep]StepResult{
			enums.FinalizationStepPersistence:  {Status: StepFailed, Error: err.Error()},
			enums.FinalizationStepAgreement:    {Status: StepSkipped},
			enums.FinalizationStepNotification: {Status: StepSkipped},
		}
		return result, nil
	}

	result.Steps = s.runSteps(ctx, rec)
	result.Steps[enums.FinalizationStepPersistence] = StepResult{Status: StepSucceeded}

	s.guard.Finish(payment.PaymentRef)
	result.State = enums.FinalizationStateFinalized
	s.queueRetries(ctx, &result, rec)
	s.metrics.IncOutcome(metrics.OutcomeFinalized)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"snapshot_id": snapshotID.String(),
		"plan_months": plan.PlanMonths,
		"plan_status": plan.Status,
	}), "booking finalized")
	return result, nil
}

func (s *Service) duplicate(ctx context.Context, result Result, snapshotID *uuid.UUID) Result {
	s.metrics.IncOutcome(metrics.OutcomeDuplicate)
	s.logg.Warn(s.logg.WithField(ctx, "event", "finalization.duplicate"), "duplicate finalization ignored")
	result.Duplicate = true
	result.State = enums.FinalizationStateNotStarted
	result.SnapshotID = snapshotID
	result.Plan = nil
	result.Steps = nil
	return result
}

type stepFunc func(ctx context.Context) error

// runSteps calls the post-commit collaborators concurrently. A failure or
// panic in one step never stops the other.
func (s *Service) runSteps(ctx context.Context, rec Record) map[enums.FinalizationStep]StepResult {
	steps := map[enums.FinalizationStep]stepFunc{
		enums.FinalizationStepNotification: func(ctx context.Context) error {
			return s.notifier.Notify(ctx, notificationRequest(rec.Booking, rec.SnapshotID, rec.Snapshot))
		},
	}
	if s.agreements != nil {
		steps[enums.FinalizationStepAgreement] = func(ctx context.Context) error {
			req, err := agreementRequest(rec.Booking, rec.SnapshotID, rec.Snapshot, rec.Payment.ConfirmedAt)
			if err != nil {
				return err
			}
			_, err = s.agreements.Generate(ctx, req)
			return err
		}
	}

	results := map[enums.FinalizationStep]StepResult{
		enums.FinalizationStepAgreement: {Status: StepSkipped},
	}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for step, fn := range steps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := StepResult{Status: StepSucceeded}
			if err := callStep(ctx, fn); err != nil {
				res = StepResult{Status: StepFailed, Error: err.Error()}
				s.metrics.IncStepFailure(step.String())
				s.logg.Error(s.logg.WithField(ctx, "step", step.String()), "finalization step failed", err)
			}
			mu.Lock()
			results[step] = res
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func callStep(ctx context.Context, fn stepFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (s *Service) queueRetries(ctx context.Context, result *Result, rec Record) {
	for _, step := range []enums.FinalizationStep{enums.FinalizationStepAgreement, enums.FinalizationStepNotification} {
		res := result.Steps[step]
		if res.Status != StepFailed {
			continue
		}
		err := s.retries.Enqueue(ctx, step, RetryRequest{
			BookingID:   rec.Booking.ID,
			SnapshotID:  rec.SnapshotID,
			PaymentRef:  rec.Payment.PaymentRef,
			Reason:      res.Error,
			RequestedAt: s.clock().UTC(),
		})
		if err != nil {
			s.logg.Error(s.logg.WithField(ctx, "step", step.String()), "failed to queue step retry", err)
			continue
		}
		res.RetryQueued = true
		result.Steps[step] = res
	}
}
