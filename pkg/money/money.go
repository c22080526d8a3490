// Package money keeps every amount in integer cents. Fractional dollar input
// is converted exactly once, at the boundary, through decimal arithmetic.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Cents is an amount of US currency in cents.
type Cents int64

var (
	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.English)
)

// FromDollars converts a dollar amount to cents, rounding half away from zero.
func FromDollars(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// ParseDollars parses input such as "1000", "1,000.50" or "$25.10".
func ParseDollars(raw string) (Cents, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return FromDollars(d), nil
}

// PercentOf returns round(total * pct) in cents, rounding half away from zero.
func PercentOf(total Cents, pct decimal.Decimal) Cents {
	return Cents(decimal.NewFromInt(int64(total)).Mul(pct).Round(0).IntPart())
}

// Dollars returns the exact dollar value of c.
func (c Cents) Dollars() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Int64 returns the raw cent count.
func (c Cents) Int64() int64 {
	return int64(c)
}

// String renders c as "$1,234.56" (or "-$1,234.56").
func (c Cents) String() string {
	return Format(c)
}

// Format renders cents with a dollar sign, thousands separators and two decimals.
func Format(c Cents) string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%s.%02d", sign, printer.Sprintf("%d", v/100), v%100)
}
