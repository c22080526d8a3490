package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/wedplan-backend/pkg/calendar"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

// AutoPlanVersion is bumped whenever PaymentPlanAuto changes shape. The
// recurring billing executor rejects versions it does not know.
const AutoPlanVersion = 1

// Snapshot pairs the human summary and the machine record of one plan.
type Snapshot struct {
	ProductKey        string
	PaymentAccountRef string
	Plan              Plan
	PaymentPlan       PaymentPlan
	PaymentPlanAuto   PaymentPlanAuto
}

// PaymentPlan is the display form shown on receipts and agreements.
type PaymentPlan struct {
	Strategy      string `json:"strategy"`
	Status        string `json:"status"`
	Total         string `json:"total"`
	DueToday      string `json:"due_today"`
	Remaining     string `json:"remaining"`
	Months        int    `json:"months"`
	MonthlyAmount string `json:"monthly_amount,omitempty"`
	LastPayment   string `json:"last_payment,omitempty"`
	NextCharge    string `json:"next_charge,omitempty"`
	FinalDue      string `json:"final_due,omitempty"`
	Description   string `json:"description"`
}

// PaymentPlanAuto is the contract consumed by the recurring billing executor.
// Amounts are integer cents, NextChargeAt is RFC 3339 and FinalDueAt is an ISO
// date.
type PaymentPlanAuto struct {
	Version           int                   `json:"version"`
	ProductKey        string                `json:"product_key"`
	Strategy          enums.PaymentStrategy `json:"strategy"`
	Status            enums.PlanStatus      `json:"status"`
	TotalCents        int64                 `json:"total_cents"`
	DepositCents      int64                 `json:"deposit_cents"`
	RemainingCents    int64                 `json:"remaining_cents"`
	PlanMonths        int                   `json:"plan_months"`
	PerMonthCents     int64                 `json:"per_month_cents"`
	LastPaymentCents  int64                 `json:"last_payment_cents"`
	NextChargeAt      *string               `json:"next_charge_at"`
	FinalDueAt        *string               `json:"final_due_at"`
	PaymentAccountRef string                `json:"payment_account_ref"`
}

// BuildSnapshot derives both forms from the same plan so they cannot disagree.
func BuildSnapshot(plan Plan, productKey, paymentAccountRef string) Snapshot {
	return Snapshot{
		ProductKey:        productKey,
		PaymentAccountRef: paymentAccountRef,
		Plan:              plan,
		PaymentPlan:       summarize(plan),
		PaymentPlanAuto:   autoRecord(plan, productKey, paymentAccountRef),
	}
}

func autoRecord(plan Plan, productKey, paymentAccountRef string) PaymentPlanAuto {
	auto := PaymentPlanAuto{
		Version:           AutoPlanVersion,
		ProductKey:        productKey,
		Strategy:          plan.Strategy,
		Status:            plan.Status,
		TotalCents:        plan.TotalCents.Int64(),
		DepositCents:      plan.DepositCents.Int64(),
		RemainingCents:    plan.RemainingCents.Int64(),
		PlanMonths:        plan.PlanMonths,
		PerMonthCents:     plan.PerMonthCents.Int64(),
		LastPaymentCents:  plan.LastPaymentCents.Int64(),
		PaymentAccountRef: paymentAccountRef,
	}
	if plan.NextChargeAt != nil {
		v := plan.NextChargeAt.UTC().Format(time.RFC3339)
		auto.NextChargeAt = &v
	}
	if plan.FinalDueAt != nil {
		v := calendar.FormatISO(*plan.FinalDueAt)
		auto.FinalDueAt = &v
	}
	return auto
}

// Plan reconstructs the plan the record was built from.
func (a PaymentPlanAuto) Plan() (Plan, error) {
	if a.Version != AutoPlanVersion {
		return Plan{}, fmt.Errorf("unsupported payment plan version %d", a.Version)
	}
	plan := Plan{
		Strategy:         a.Strategy,
		Status:           a.Status,
		TotalCents:       money.Cents(a.TotalCents),
		DepositCents:     money.Cents(a.DepositCents),
		RemainingCents:   money.Cents(a.RemainingCents),
		PlanMonths:       a.PlanMonths,
		PerMonthCents:    money.Cents(a.PerMonthCents),
		LastPaymentCents: money.Cents(a.LastPaymentCents),
	}
	if a.NextChargeAt != nil {
		t, err := time.Parse(time.RFC3339, *a.NextChargeAt)
		if err != nil {
			return Plan{}, fmt.Errorf("next_charge_at: %w", err)
		}
		t = t.UTC()
		plan.NextChargeAt = &t
	}
	if a.FinalDueAt != nil {
		t, err := calendar.ParseDate(*a.FinalDueAt)
		if err != nil {
			return Plan{}, fmt.Errorf("final_due_at: %w", err)
		}
		plan.FinalDueAt = &t
	}
	if err := plan.Validate(); err != nil {
		return Plan{}, fmt.Errorf("payment plan record: %w", err)
	}
	return plan, nil
}

func summarize(plan Plan) PaymentPlan {
	summary := PaymentPlan{
		Strategy:  strategyLabel(plan.Strategy),
		Status:    string(plan.Status),
		Total:     money.Format(plan.TotalCents),
		DueToday:  money.Format(plan.DueToday()),
		Remaining: money.Format(plan.RemainingCents),
		Months:    plan.PlanMonths,
	}
	if plan.PlanMonths > 0 {
		summary.MonthlyAmount = money.Format(plan.PerMonthCents)
		summary.LastPayment = money.Format(plan.LastPaymentCents)
	}
	if plan.NextChargeAt != nil {
		summary.NextCharge = calendar.FormatLong(*plan.NextChargeAt)
	}
	if plan.FinalDueAt != nil {
		summary.FinalDue = calendar.FormatLong(*plan.FinalDueAt)
	}
	summary.Description = describe(plan, summary)
	return summary
}

func describe(plan Plan, s PaymentPlan) string {
	switch {
	case plan.Strategy == enums.PaymentStrategyPayInFull:
		return fmt.Sprintf("Paid in full today: %s.", s.Total)
	case plan.RemainingCents == 0:
		return fmt.Sprintf("Deposit of %s covers the full contract.", s.DueToday)
	case plan.Unresolved():
		return fmt.Sprintf("Deposit of %s today. The remaining %s will be scheduled once the wedding date is set.", s.DueToday, s.Remaining)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Deposit of %s today, then ", s.DueToday)
	switch {
	case plan.PlanMonths == 1:
		fmt.Fprintf(&b, "one payment of %s on %s", s.LastPayment, s.NextCharge)
	case plan.PerMonthCents == plan.LastPaymentCents:
		fmt.Fprintf(&b, "%d monthly payments of %s starting %s", plan.PlanMonths, s.MonthlyAmount, s.NextCharge)
	default:
		fmt.Fprintf(&b, "%d monthly payments of %s and a final payment of %s starting %s",
			plan.PlanMonths-1, s.MonthlyAmount, s.LastPayment, s.NextCharge)
	}
	fmt.Fprintf(&b, ". Balance due by %s.", s.FinalDue)
	return b.String()
}

func strategyLabel(strategy enums.PaymentStrategy) string {
	switch strategy {
	case enums.PaymentStrategyPayInFull:
		return "Pay in full"
	case enums.PaymentStrategyDepositThenMonthly:
		return "Deposit + monthly"
	default:
		return string(strategy)
	}
}
