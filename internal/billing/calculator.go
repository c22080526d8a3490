package billing

import (
	"time"

	"github.com/angelmondragon/wedplan-backend/pkg/calendar"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// PlanInput carries everything ComputePlan needs. Now is explicit so plans
// are reproducible.
type PlanInput struct {
	TotalCents         money.Cents
	Strategy           enums.PaymentStrategy
	DepositPercent     decimal.Decimal
	Now                time.Time
	WeddingDate        *time.Time
	FinalDueOffsetDays int
}

// ComputePlan turns a contract total and payment strategy into an installment
// plan. It has no side effects.
func ComputePlan(in PlanInput) (Plan, error) {
	if err := validateInput(in); err != nil {
		return Plan{}, err
	}

	var finalDue *time.Time
	if in.WeddingDate != nil {
		due := calendar.AddDays(calendar.DateOnly(*in.WeddingDate), -in.FinalDueOffsetDays)
		finalDue = &due
	}

	if in.Strategy == enums.PaymentStrategyPayInFull {
		return Plan{
			Strategy:     in.Strategy,
			TotalCents:   in.TotalCents,
			DepositCents: in.TotalCents,
			Status:       enums.PlanStatusComplete,
			FinalDueAt:   finalDue,
		}, nil
	}

	deposit := money.PercentOf(in.TotalCents, in.DepositPercent)
	if deposit > in.TotalCents {
		deposit = in.TotalCents
	}
	plan := Plan{
		Strategy:       in.Strategy,
		TotalCents:     in.TotalCents,
		DepositCents:   deposit,
		RemainingCents: in.TotalCents - deposit,
		Status:         enums.PlanStatusActive,
		FinalDueAt:     finalDue,
	}

	if plan.RemainingCents == 0 {
		plan.Status = enums.PlanStatusComplete
		return plan, nil
	}
	if plan.FinalDueAt == nil {
		// wedding date unknown: nothing can be scheduled yet
		return plan, nil
	}

	months := calendar.MonthsBetweenInclusive(in.Now, *plan.FinalDueAt)
	if months < 1 {
		months = 1
	}
	per := plan.RemainingCents / money.Cents(months)
	next := calendar.FirstOfNextMonth(in.Now)

	plan.PlanMonths = months
	plan.PerMonthCents = per
	plan.LastPaymentCents = plan.RemainingCents - per*money.Cents(months-1)
	plan.NextChargeAt = &next
	return plan, nil
}

func validateInput(in PlanInput) error {
	details := map[string]any{}
	if in.TotalCents < 0 {
		details["total_cents"] = "must be >= 0"
	}
	if !in.Strategy.IsValid() {
		details["strategy"] = "must be pay_in_full or deposit_then_monthly"
	}
	if in.DepositPercent.LessThanOrEqual(decimal.Zero) || in.DepositPercent.GreaterThan(decimal.NewFromInt(1)) {
		details["deposit_percent"] = "must be in (0,1]"
	}
	if in.FinalDueOffsetDays < 0 {
		details["final_due_offset_days"] = "must be >= 0"
	}
	if in.Now.IsZero() {
		details["now"] = "is required"
	}
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid billing plan input").WithDetails(details)
}
