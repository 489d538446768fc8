// Package money converts between dollar amounts entered at the edges and the
// integer cents stored in Postgres. All arithmetic is decimal; binary floats
// never touch an amount.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ErrOutOfRange reports an amount whose cents do not fit in an int64.
var ErrOutOfRange = errors.New("money: amount out of range")

// ToCents converts a dollar amount to cents, rounding half away from zero at
// the cent. Amounts already expressed with two decimals convert exactly.
func ToCents(dollars decimal.Decimal) (int64, error) {
	cents := dollars.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, ErrOutOfRange
	}
	return cents.IntPart(), nil
}

// FromCents converts stored cents back to dollars.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// LineTotal is quantity × unit price.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// Format renders cents as US dollars, e.g. 123456 -> "$1,234.56".
func Format(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := fmt.Sprintf("$%s.%02d", b.String(), cents%100)
	if neg {
		return "-" + out
	}
	return out
}
