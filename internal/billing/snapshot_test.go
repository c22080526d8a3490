package billing

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

func workedExamplePlan(t *testing.T) Plan {
	t.Helper()
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
	return plan
}

func assertPlansEqual(t *testing.T, want, got Plan) {
	t.Helper()
	if want.Strategy != got.Strategy || want.Status != got.Status ||
		want.TotalCents != got.TotalCents || want.DepositCents != got.DepositCents ||
		want.RemainingCents != got.RemainingCents || want.PlanMonths != got.PlanMonths ||
		want.PerMonthCents != got.PerMonthCents || want.LastPaymentCents != got.LastPaymentCents {
		t.Fatalf("plan mismatch\nwant %+v\ngot  %+v", want, got)
	}
	if (want.NextChargeAt == nil) != (got.NextChargeAt == nil) ||
		(want.NextChargeAt != nil && !want.NextChargeAt.Equal(*got.NextChargeAt)) {
		t.Fatalf("next charge mismatch want %v got %v", want.NextChargeAt, got.NextChargeAt)
	}
	if (want.FinalDueAt == nil) != (got.FinalDueAt == nil) ||
		(want.FinalDueAt != nil && !want.FinalDueAt.Equal(*got.FinalDueAt)) {
		t.Fatalf("final due mismatch want %v got %v", want.FinalDueAt, got.FinalDueAt)
	}
}

func TestBuildSnapshotAutoRecordRoundTrips(t *testing.T) {
	plan := workedExamplePlan(t)
	snap := BuildSnapshot(plan, "venue-grand-hall", "pm_123")

	raw, err := json.Marshal(snap.PaymentPlanAuto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded PaymentPlanAuto
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	restored, err := decoded.Plan()
	if err != nil {
		t.Fatalf("Plan(): %v", err)
	}
	assertPlansEqual(t, plan, restored)

	if decoded.PaymentAccountRef != "pm_123" || decoded.ProductKey != "venue-grand-hall" {
		t.Fatalf("metadata lost: %+v", decoded)
	}
	if *decoded.FinalDueAt != "2025-09-05" || *decoded.NextChargeAt != "2025-02-01T00:00:01Z" {
		t.Fatalf("unexpected date encoding %s / %s", *decoded.FinalDueAt, *decoded.NextChargeAt)
	}
}

func TestBuildSnapshotRoundTripsUnresolvedAndPaidInFull(t *testing.T) {
	plans := []PlanInput{
		{TotalCents: 5000, Strategy: enums.PaymentStrategyDepositThenMonthly, DepositPercent: decimal.RequireFromString("0.25"), Now: date(t, "2025-01-15"), FinalDueOffsetDays: 35},
		{TotalCents: 5000, Strategy: enums.PaymentStrategyPayInFull, DepositPercent: decimal.RequireFromString("0.25"), Now: date(t, "2025-01-15"), FinalDueOffsetDays: 35},
	}
	for _, in := range plans {
		plan, err := ComputePlan(in)
		if err != nil {
			t.Fatalf("ComputePlan: %v", err)
		}
		restored, err := BuildSnapshot(plan, "dessert-bar", "").PaymentPlanAuto.Plan()
		if err != nil {
			t.Fatalf("Plan(): %v", err)
		}
		assertPlansEqual(t, plan, restored)
	}
}

func TestBuildSnapshotHumanSummaryMatchesAutoRecord(t *testing.T) {
	snap := BuildSnapshot(workedExamplePlan(t), "venue-grand-hall", "pm_123")
	summary := snap.PaymentPlan

	if summary.Total != "$1,000.00" || summary.DueToday != "$250.00" || summary.Remaining != "$750.00" {
		t.Fatalf("unexpected amounts %+v", summary)
	}
	if summary.Months != snap.PaymentPlanAuto.PlanMonths {
		t.Fatalf("months disagree: %d vs %d", summary.Months, snap.PaymentPlanAuto.PlanMonths)
	}
	if summary.MonthlyAmount != "$93.75" || summary.FinalDue != "September 5, 2025" || summary.NextCharge != "February 1, 2025" {
		t.Fatalf("unexpected schedule %+v", summary)
	}
	want := "Deposit of $250.00 today, then 8 monthly payments of $93.75 starting February 1, 2025. Balance due by September 5, 2025."
	if summary.Description != want {
		t.Fatalf("description\nwant %q\ngot  %q", want, summary.Description)
	}
}

func TestBuildSnapshotDescribesUnevenFinalPayment(t *testing.T) {
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
	desc := BuildSnapshot(plan, "catering-classic", "").PaymentPlan.Description
	if !strings.Contains(desc, "2 monthly payments of $33.33 and a final payment of $33.34") {
		t.Fatalf("unexpected description %q", desc)
	}
}

func TestPaymentPlanAutoRejectsTamperedRecord(t *testing.T) {
	auto := BuildSnapshot(workedExamplePlan(t), "venue-grand-hall", "pm_123").PaymentPlanAuto
	auto.LastPaymentCents++
	if _, err := auto.Plan(); err == nil {
		t.Fatal("expected inconsistent record to be rejected")
	}

	auto = BuildSnapshot(workedExamplePlan(t), "venue-grand-hall", "pm_123").PaymentPlanAuto
	auto.Version = 99
	if _, err := auto.Plan(); err == nil {
		t.Fatal("expected unknown version to be rejected")
	}
}
