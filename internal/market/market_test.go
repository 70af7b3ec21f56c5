package market

import (
	"testing"

	"stagepass-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValidateResalePrice(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name     string
		original string
		resale   string
		wantErr  error
	}{
		{"at original price", "1000", "1000", nil},
		{"20% markup", "1000", "1200", nil},
		{"exactly at 30% cap", "1000", "1300", nil},
		{"just above cap", "1000", "1300.01", domain.ErrPriceExceedsMarkup},
		{"40% markup", "1000", "1400", domain.ErrPriceExceedsMarkup},
		{"below original", "1000", "500", nil},
		{"fractional original at cap", "99.99", "129.987", nil},
		{"zero price", "1000", "0", domain.ErrInvalidPrice},
		{"negative price", "1000", "-5", domain.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.ValidateResalePrice(d(tt.original), d(tt.resale))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDistribute(t *testing.T) {
	p := DefaultParams()

	dist := p.Distribute(d("1200"))
	assert.True(t, dist.Royalty.Equal(d("120")), "royalty = %s", dist.Royalty)
	assert.True(t, dist.PlatformFee.Equal(d("30")), "platform fee = %s", dist.PlatformFee)
	assert.True(t, dist.SellerReceives.Equal(d("1050")), "seller receives = %s", dist.SellerReceives)
	assert.True(t, dist.Total.Equal(d("1200")))
}

func TestDistribute_PartsSumToTotal(t *testing.T) {
	p := DefaultParams()

	for _, price := range []string{"0.01", "1", "33.33", "999.99", "1200", "123456.78"} {
		dist := p.Distribute(d(price))
		sum := dist.Royalty.Add(dist.PlatformFee).Add(dist.SellerReceives)
		require.True(t, sum.Equal(d(price)), "price %s: parts sum to %s", price, sum)
	}
}

func TestDistribute_CustomParams(t *testing.T) {
	p := Params{
		MaxMarkupPct:   decimal.NewFromInt(50),
		RoyaltyPct:     decimal.NewFromInt(5),
		PlatformFeePct: decimal.NewFromInt(1),
	}

	dist := p.Distribute(d("200"))
	assert.True(t, dist.Royalty.Equal(d("10")))
	assert.True(t, dist.PlatformFee.Equal(d("2")))
	assert.True(t, dist.SellerReceives.Equal(d("188")))

	assert.NoError(t, p.ValidateResalePrice(d("100"), d("150")))
	assert.ErrorIs(t, p.ValidateResalePrice(d("100"), d("151")), domain.ErrPriceExceedsMarkup)
}
