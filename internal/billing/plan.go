package billing

import (
	"fmt"
	"time"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

// Plan is a fully specified installment schedule. It is built once and never
// mutated; a correction produces a new Plan.
type Plan struct {
	Strategy         enums.PaymentStrategy
	TotalCents       money.Cents
	DepositCents     money.Cents
	RemainingCents   money.Cents
	PlanMonths       int
	PerMonthCents    money.Cents
	LastPaymentCents money.Cents
	NextChargeAt     *time.Time
	FinalDueAt       *time.Time
	Status           enums.PlanStatus
}

// DueToday is what the payer is charged at checkout.
func (p Plan) DueToday() money.Cents {
	return p.DepositCents
}

// Unresolved reports a deposit plan whose wedding date was unknown at
// checkout: a balance remains but no installments are scheduled.
func (p Plan) Unresolved() bool {
	return p.Status == enums.PlanStatusActive && p.PlanMonths == 0
}

// Validate checks the arithmetic invariants every plan must satisfy.
func (p Plan) Validate() error {
	for name, v := range map[string]money.Cents{
		"total":     p.TotalCents,
		"deposit":   p.DepositCents,
		"remaining": p.RemainingCents,
		"per_month": p.PerMonthCents,
		"last":      p.LastPaymentCents,
	} {
		if v < 0 {
			return fmt.Errorf("%s is negative: %d", name, v)
		}
	}
	if p.PlanMonths < 0 {
		return fmt.Errorf("plan months is negative: %d", p.PlanMonths)
	}
	if p.DepositCents+p.RemainingCents != p.TotalCents {
		return fmt.Errorf("deposit %d + remaining %d != total %d", p.DepositCents, p.RemainingCents, p.TotalCents)
	}

	switch {
	case p.PlanMonths > 1:
		sum := p.PerMonthCents*money.Cents(p.PlanMonths-1) + p.LastPaymentCents
		if sum != p.RemainingCents {
			return fmt.Errorf("installments sum to %d, remaining is %d", sum, p.RemainingCents)
		}
	case p.PlanMonths == 1:
		if p.PerMonthCents != p.RemainingCents || p.LastPaymentCents != p.RemainingCents {
			return fmt.Errorf("single installment must equal remaining %d", p.RemainingCents)
		}
	}

	if p.PlanMonths > 0 && p.NextChargeAt == nil {
		return fmt.Errorf("next charge date missing for %d month plan", p.PlanMonths)
	}
	if p.PlanMonths == 0 && p.NextChargeAt != nil {
		return fmt.Errorf("next charge date set on plan without installments")
	}

	complete := p.Status == enums.PlanStatusComplete
	if complete != (p.RemainingCents == 0) {
		return fmt.Errorf("status %s inconsistent with remaining %d", p.Status, p.RemainingCents)
	}
	if p.RemainingCents > 0 && p.PlanMonths == 0 && p.FinalDueAt != nil {
		return fmt.Errorf("balance without installments requires an unknown final due date")
	}
	return nil
}
