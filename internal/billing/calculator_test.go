package billing

import (
	"testing"
	"time"

	"github.com/angelmondragon/wedplan-backend/pkg/calendar"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wedplan-backend/pkg/errors"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
	"github.com/shopspring/decimal"
)

func date(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return d
}

func datePtr(t *testing.T, raw string) *time.Time {
	d := date(t, raw)
	return &d
}

func TestComputePlanWorkedExample(t *testing.T) {
	plan, err := ComputePlan(PlanInput{
		TotalCents:         100000,
		Strategy:           enums.PaymentStrategyDepositThenMonthly,
		DepositPercent:     decimal.RequireFromString("0.25"),
		Now:                date(t, "2025-01-15"),
		WeddingDate:        datePtr(t, "2025-10-10"),
		FinalDueOffsetDays: 35,
	})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}

	if plan.FinalDueAt == nil || calendar.FormatISO(*plan.FinalDueAt) != "2025-09-05" {
		t.Fatalf("expected final due 2025-09-05, got %v", plan.FinalDueAt)
	}
	if plan.DepositCents != 25000 || plan.RemainingCents != 75000 {
		t.Fatalf("unexpected split deposit=%d remaining=%d", plan.DepositCents, plan.RemainingCents)
	}
	if plan.PlanMonths != 8 || plan.PerMonthCents != 9375 || plan.LastPaymentCents != 9375 {
		t.Fatalf("unexpected installments %+v", plan)
	}
	wantNext := time.Date(2025, 2, 1, 0, 0, 1, 0, time.UTC)
	if plan.NextChargeAt == nil || !plan.NextChargeAt.Equal(wantNext) {
		t.Fatalf("expected next charge %s, got %v", wantNext, plan.NextChargeAt)
	}
	if plan.Status != enums.PlanStatusActive {
		t.Fatalf("expected active, got %s", plan.Status)
	}
}

func TestComputePlanRemainderGoesToLastPayment(t *testing.T) {
	// 40000 at 75% leaves 10000; due 2025-03-20 from 2025-01-15 is 3 months.
	plan, err := ComputePlan(PlanInput{
		TotalCents:         40000,
		Strategy:           enums.PaymentStrategyDepositThenMonthly,
		DepositPercent:     decimal.RequireFromString("0.75"),
		Now:                date(t, "2025-01-15"),
		WeddingDate:        datePtr(t, "2025-04-24"),
		FinalDueOffsetDays: 35,
	})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}
	if plan.RemainingCents != 10000 || plan.PlanMonths != 3 {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if plan.PerMonthCents != 3333 || plan.LastPaymentCents != 3334 {
		t.Fatalf("expected 3333/3334, got %d/%d", plan.PerMonthCents, plan.LastPaymentCents)
	}
}

func TestComputePlanPayInFull(t *testing.T) {
	plan, err := ComputePlan(PlanInput{
		TotalCents:         123456,
		Strategy:           enums.PaymentStrategyPayInFull,
		DepositPercent:     decimal.RequireFromString("0.25"),
		Now:                date(t, "2025-01-15"),
		WeddingDate:        datePtr(t, "2025-10-10"),
		FinalDueOffsetDays: 35,
	})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}
	if plan.PlanMonths != 0 || plan.DepositCents != 123456 || plan.RemainingCents != 0 {
		t.Fatalf("unexpected pay in full plan %+v", plan)
	}
	if plan.Status != enums.PlanStatusComplete {
		t.Fatalf("expected complete, got %s", plan.Status)
	}
	if plan.NextChargeAt != nil {
		t.Fatalf("pay in full should not schedule charges")
	}
	if plan.FinalDueAt == nil || !plan.FinalDueAt.Equal(date(t, "2025-09-05")) {
		t.Fatalf("expected final due 2025-09-05, got %v", plan.FinalDueAt)
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	undated, err := ComputePlan(PlanInput{
		TotalCents:         123456,
		Strategy:           enums.PaymentStrategyPayInFull,
		DepositPercent:     decimal.RequireFromString("0.25"),
		Now:                date(t, "2025-01-15"),
		FinalDueOffsetDays: 35,
	})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}
	if undated.FinalDueAt != nil || undated.Status != enums.PlanStatusComplete {
		t.Fatalf("unexpected undated pay in full plan %+v", undated)
	}
}

func TestComputePlanUnknownWeddingDateStaysActive(t *testing.T) {
	plan, err := ComputePlan(PlanInput{
		TotalCents:         100000,
		Strategy:           enums.PaymentStrategyDepositThenMonthly,
		DepositPercent:     decimal.RequireFromString("0.25"),
		Now:                date(t, "2025-01-15"),
		FinalDueOffsetDays: 35,
	})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}
	if plan.PlanMonths != 0 || plan.FinalDueAt != nil || plan.NextChargeAt != nil {
		t.Fatalf("expected no schedule, got %+v", plan)
	}
	if plan.Status != enums.PlanStatusActive {
		t.Fatalf("expected active, got %s", plan.Status)
	}
	if !plan.Unresolved() {
		t.Fatal("expected plan to be flagged unresolved")
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("unresolved plan should validate: %v", err)
	}
}

func TestComputePlanFloorsMonthsAtOne(t *testing.T) {
	// final due already passed
	plan, err := ComputePlan(PlanInput{
		TotalCents:         50000,
		Strategy:           enums.PaymentStrategyDepositThenMonthly,
		DepositPercent:     decimal.RequireFromString("0.2"),
		Now:                date(t, "2025-06-20"),
		WeddingDate:        datePtr(t, "2025-07-01"),
		FinalDueOffsetDays: 35,
	})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}
	if plan.PlanMonths != 1 || plan.PerMonthCents != 40000 || plan.LastPaymentCents != 40000 {
		t.Fatalf("expected single installment of remaining, got %+v", plan)
	}
}

func TestComputePlanFullDepositIsComplete(t *testing.T) {
	plan, err := ComputePlan(PlanInput{
		TotalCents:         80000,
		Strategy:           enums.PaymentStrategyDepositThenMonthly,
		DepositPercent:     decimal.NewFromInt(1),
		Now:                date(t, "2025-01-15"),
		FinalDueOffsetDays: 35,
	})
	if err != nil {
		t.Fatalf("ComputePlan: %v", err)
	}
	if plan.Status != enums.PlanStatusComplete || plan.PlanMonths != 0 || plan.RemainingCents != 0 {
		t.Fatalf("expected complete plan, got %+v", plan)
	}
}

func TestComputePlanRejectsInvalidInput(t *testing.T) {
	base := PlanInput{
		TotalCents:         1000,
		Strategy:           enums.PaymentStrategyDepositThenMonthly,
		DepositPercent:     decimal.RequireFromString("0.25"),
		Now:                date(t, "2025-01-15"),
		FinalDueOffsetDays: 35,
	}
	cases := map[string]func(in *PlanInput){
		"negative total":   func(in *PlanInput) { in.TotalCents = -1 },
		"zero percent":     func(in *PlanInput) { in.DepositPercent = decimal.Zero },
		"percent above 1":  func(in *PlanInput) { in.DepositPercent = decimal.RequireFromString("1.01") },
		"unknown strategy": func(in *PlanInput) { in.Strategy = "layaway" },
		"negative offset":  func(in *PlanInput) { in.FinalDueOffsetDays = -1 },
		"missing now":      func(in *PlanInput) { in.Now = time.Time{} },
	}
	for name, mutate := range cases {
		in := base
		mutate(&in)
		_, err := ComputePlan(in)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestComputePlanInvariantsHoldAcrossInputs(t *testing.T) {
	totals := []money.Cents{0, 1, 7, 99, 10000, 100000, 123457, 999999, 2500001}
	percents := []string{"0.01", "0.1", "0.15", "0.25", "0.333", "0.5", "0.999", "1"}
	nows := []string{"2025-01-01", "2025-01-15", "2025-01-31", "2025-02-28", "2025-12-31"}
	weddings := []string{"", "2025-01-10", "2025-03-01", "2025-10-10", "2026-02-28", "2027-06-30"}
	offsets := []int{0, 14, 35, 90}

	for _, total := range totals {
		for _, pct := range percents {
			for _, now := range nows {
				for _, wedding := range weddings {
					for _, offset := range offsets {
						in := PlanInput{
							TotalCents:         total,
							Strategy:           enums.PaymentStrategyDepositThenMonthly,
							DepositPercent:     decimal.RequireFromString(pct),
							Now:                date(t, now),
							FinalDueOffsetDays: offset,
						}
						if wedding != "" {
							in.WeddingDate = datePtr(t, wedding)
						}
						plan, err := ComputePlan(in)
						if err != nil {
							t.Fatalf("ComputePlan(%+v): %v", in, err)
						}
						if err := plan.Validate(); err != nil {
							t.Fatalf("invariant broken for total=%d pct=%s now=%s wedding=%s offset=%d: %v",
								total, pct, now, wedding, offset, err)
						}
						if plan.PlanMonths > 0 {
							collected := plan.DepositCents + plan.PerMonthCents*money.Cents(plan.PlanMonths-1) + plan.LastPaymentCents
							if collected != total {
								t.Fatalf("lost cents: collected %d of %d", collected, total)
							}
						}
					}
				}
			}
		}
	}
}
