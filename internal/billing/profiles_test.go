package billing

import (
	"testing"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

func testCatalog() *Catalog {
	return NewCatalog(config.BillingConfig{
		DefaultDepositPercent:     0.25,
		DefaultFinalDueOffsetDays: 35,
		DepositPercentOverrides:   map[string]float64{"venue-grand-hall": 0.5},
		FinalDueOffsetOverrides:   map[string]int{"Dessert-Bar": 14},
	})
}

func TestCatalogResolveAppliesOverrides(t *testing.T) {
	c := testCatalog()

	venue := c.Resolve("venue-grand-hall")
	if venue.DepositPercent.String() != "0.5" || venue.FinalDueOffsetDays != 35 {
		t.Fatalf("unexpected venue profile %+v", venue)
	}

	dessert := c.Resolve(" dessert-bar ")
	if dessert.DepositPercent.String() != "0.25" || dessert.FinalDueOffsetDays != 14 {
		t.Fatalf("unexpected dessert profile %+v", dessert)
	}

	unknown := c.Resolve("florist")
	if unknown.FinalDueOffsetDays != 35 {
		t.Fatalf("expected defaults for unknown product, got %+v", unknown)
	}
}

func TestCatalogQuoteUsesProductOffset(t *testing.T) {
	c := testCatalog()
	plan, profile, err := c.Quote("dessert-bar", 100000, enums.PaymentStrategyDepositThenMonthly, date(t, "2025-01-15"), datePtr(t, "2025-10-10"))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if profile.FinalDueOffsetDays != 14 {
		t.Fatalf("expected dessert offset, got %d", profile.FinalDueOffsetDays)
	}
	// 2025-10-10 minus 14 days is 2025-09-26: 8 month difference plus one.
	if plan.PlanMonths != 9 {
		t.Fatalf("expected 9 months, got %d", plan.PlanMonths)
	}
}
