package currency

import (
	"fmt"
	"strings"

	"stagepass-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// SettlementDecimals is the APT fractional precision (1 APT = 1e8 octas).
const SettlementDecimals = 8

const unitLabel = "APT"

// DefaultRate is the fixed deploy-time exchange rate: 1 INR = 0.00001 APT.
var DefaultRate = decimal.RequireFromString("0.00001")

var octasPerAPT = decimal.New(1, SettlementDecimals)

// Converter translates display-currency amounts (INR) into settlement
// token amounts (APT). Deterministic; no side effects.
type Converter struct {
	Rate decimal.Decimal
}

// NewConverter returns a converter for the given rate, falling back to
// DefaultRate when the rate is unset.
func NewConverter(rate decimal.Decimal) Converter {
	if rate.IsZero() {
		rate = DefaultRate
	}
	return Converter{Rate: rate}
}

// ToSettlementUnits converts a display amount to APT, rounded to octa
// precision.
func (c Converter) ToSettlementUnits(display decimal.Decimal) decimal.Decimal {
	return display.Mul(c.Rate).Round(SettlementDecimals)
}

// Octas returns the on-chain integer representation of an APT amount.
func (c Converter) Octas(apt decimal.Decimal) int64 {
	return apt.Mul(octasPerAPT).IntPart()
}

// FromOctas converts an on-chain integer amount back to APT.
func FromOctas(octas int64) decimal.Decimal {
	return decimal.New(octas, -SettlementDecimals)
}

// Format renders an APT amount canonically, e.g. "0.01200000 APT".
func Format(apt decimal.Decimal) string {
	return apt.StringFixed(SettlementDecimals) + " " + unitLabel
}

// ParseAmount parses a money amount from its string form. Non-numeric
// input fails with ErrInvalidAmount rather than degrading to zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", domain.ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	return d, nil
}
