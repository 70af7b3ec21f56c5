package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validListing() Listing {
	return Listing{
		ID:             "T1-1756000000000",
		TicketID:       "T1",
		Seller:         "0xseller",
		OriginalPrice:  decimal.NewFromInt(1000),
		ResalePrice:    decimal.NewFromInt(1200),
		RoyaltyAmount:  decimal.NewFromInt(120),
		PlatformFee:    decimal.NewFromInt(30),
		SellerReceives: decimal.NewFromInt(1050),
		Status:         ListingStatusListed,
		Version:        1,
	}
}

func TestListingValidate(t *testing.T) {
	l := validListing()
	assert.NoError(t, l.Validate())

	missing := validListing()
	missing.Seller = ""
	assert.ErrorIs(t, missing.Validate(), ErrInvalidListing)

	badStatus := validListing()
	badStatus.Status = "pending"
	assert.ErrorIs(t, badStatus.Validate(), ErrInvalidListing)

	zeroPrice := validListing()
	zeroPrice.ResalePrice = decimal.Zero
	assert.ErrorIs(t, zeroPrice.Validate(), ErrInvalidPrice)

	// Fee parts must reconstruct the resale price exactly.
	drifted := validListing()
	drifted.SellerReceives = decimal.NewFromInt(1049)
	assert.ErrorIs(t, drifted.Validate(), ErrInvalidListing)
}

func TestListingSold(t *testing.T) {
	l := validListing()
	assert.False(t, l.Sold())
	l.Status = ListingStatusSold
	assert.True(t, l.Sold())
}
