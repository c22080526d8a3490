package billing

import (
	"strings"
	"time"

	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
	"github.com/shopspring/decimal"
)

// Profile holds the per-product billing parameters. Venues, caterers and
// dessert vendors share one calculator and differ only here.
type Profile struct {
	ProductKey         string
	DepositPercent     decimal.Decimal
	FinalDueOffsetDays int
}

// Catalog resolves profiles from configuration. Unknown products use the
// defaults.
type Catalog struct {
	defaultPercent decimal.Decimal
	defaultOffset  int
	percents       map[string]decimal.Decimal
	offsets        map[string]int
}

// NewCatalog builds a catalog from the billing config section.
func NewCatalog(cfg config.BillingConfig) *Catalog {
	c := &Catalog{
		defaultPercent: decimal.NewFromFloat(cfg.DefaultDepositPercent),
		defaultOffset:  cfg.DefaultFinalDueOffsetDays,
		percents:       make(map[string]decimal.Decimal, len(cfg.DepositPercentOverrides)),
		offsets:        make(map[string]int, len(cfg.FinalDueOffsetOverrides)),
	}
	for key, pct := range cfg.DepositPercentOverrides {
		c.percents[normalizeKey(key)] = decimal.NewFromFloat(pct)
	}
	for key, days := range cfg.FinalDueOffsetOverrides {
		c.offsets[normalizeKey(key)] = days
	}
	return c
}

// Resolve returns the profile for productKey.
func (c *Catalog) Resolve(productKey string) Profile {
	key := normalizeKey(productKey)
	profile := Profile{
		ProductKey:         key,
		DepositPercent:     c.defaultPercent,
		FinalDueOffsetDays: c.defaultOffset,
	}
	if pct, ok := c.percents[key]; ok {
		profile.DepositPercent = pct
	}
	if days, ok := c.offsets[key]; ok {
		profile.FinalDueOffsetDays = days
	}
	return profile
}

// Quote computes the plan a checkout would produce for productKey right now.
func (c *Catalog) Quote(productKey string, total money.Cents, strategy enums.PaymentStrategy, now time.Time, weddingDate *time.Time) (Plan, Profile, error) {
	profile := c.Resolve(productKey)
	plan, err := ComputePlan(PlanInput{
		TotalCents:         total,
		Strategy:           strategy,
		DepositPercent:     profile.DepositPercent,
		Now:                now,
		WeddingDate:        weddingDate,
		FinalDueOffsetDays: profile.FinalDueOffsetDays,
	})
	return plan, profile, err
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
