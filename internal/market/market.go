// Package market holds the resale pricing rules: the markup cap a seller
// may list at, and the fixed fee distribution applied to every resale.
package market

import (
	"fmt"

	"stagepass-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Params are the marketplace percentages, fixed at deploy time.
type Params struct {
	MaxMarkupPct   decimal.Decimal
	RoyaltyPct     decimal.Decimal
	PlatformFeePct decimal.Decimal
}

// DefaultParams: 30% markup cap, 10% organizer royalty, 2.5% platform fee.
func DefaultParams() Params {
	return Params{
		MaxMarkupPct:   decimal.NewFromInt(30),
		RoyaltyPct:     decimal.NewFromInt(10),
		PlatformFeePct: decimal.RequireFromString("2.5"),
	}
}

// ValidateResalePrice enforces the markup cap against the original ticket
// price. The cap is checked once, at listing creation. A zero or negative
// resale price is rejected outright.
func (p Params) ValidateResalePrice(original, resale decimal.Decimal) error {
	if !resale.IsPositive() {
		return domain.ErrInvalidPrice
	}
	maxAllowed := original.Mul(hundred.Add(p.MaxMarkupPct)).Div(hundred)
	if resale.GreaterThan(maxAllowed) {
		return fmt.Errorf("%w: price cannot exceed %s%% of original price",
			domain.ErrPriceExceedsMarkup, p.MaxMarkupPct.String())
	}
	return nil
}

// Distribution is the fee split of a resale price. The parts always sum
// to Total exactly: SellerReceives is computed as the remainder.
type Distribution struct {
	Total          decimal.Decimal `json:"total"`
	Royalty        decimal.Decimal `json:"royalty"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	SellerReceives decimal.Decimal `json:"seller_receives"`
}

// Distribute splits a resale price into royalty, platform fee, and seller
// proceeds. Pure function.
func (p Params) Distribute(resale decimal.Decimal) Distribution {
	royalty := resale.Mul(p.RoyaltyPct).Div(hundred)
	fee := resale.Mul(p.PlatformFeePct).Div(hundred)
	return Distribution{
		Total:          resale,
		Royalty:        royalty,
		PlatformFee:    fee,
		SellerReceives: resale.Sub(royalty).Sub(fee),
	}
}
