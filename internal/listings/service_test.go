package listings

import (
	"context"
	"testing"
	"time"

	"stagepass-backend/internal/domain"
	"stagepass-backend/internal/market"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Listing{}))
	return &Service{DB: db, Params: market.DefaultParams()}
}

func testTicket(id string, price string) domain.Ticket {
	return domain.Ticket{
		ID:            id,
		SeatID:        "A-12",
		ImageURL:      "https://gateway.pinata.cloud/ipfs/QmTest",
		Venue:         "Wankhede Stadium",
		Price:         decimal.RequireFromString(price),
		Date:          "2026-03-14",
		WalletAddress: "0xseller",
		Status:        domain.TicketStatusActive,
		MintedAt:      time.Now(),
	}
}

func TestCreate_ComputesFeeDistribution(t *testing.T) {
	s := setupService(t)

	listing, err := s.Create(context.Background(), testTicket("T1", "1000"), decimal.NewFromInt(1200), "0xseller")
	require.NoError(t, err)

	assert.Equal(t, "T1", listing.TicketID)
	assert.Equal(t, domain.ListingStatusListed, listing.Status)
	assert.Equal(t, 1, listing.Version)
	assert.True(t, listing.RoyaltyAmount.Equal(decimal.NewFromInt(120)), "royalty = %s", listing.RoyaltyAmount)
	assert.True(t, listing.PlatformFee.Equal(decimal.NewFromInt(30)), "platform fee = %s", listing.PlatformFee)
	assert.True(t, listing.SellerReceives.Equal(decimal.NewFromInt(1050)), "seller receives = %s", listing.SellerReceives)
	assert.Contains(t, listing.ID, "T1-")
}

func TestCreate_RejectsExcessiveMarkup(t *testing.T) {
	s := setupService(t)

	_, err := s.Create(context.Background(), testTicket("T1", "1000"), decimal.NewFromInt(1400), "0xseller")
	assert.ErrorIs(t, err, domain.ErrPriceExceedsMarkup)

	all, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_RejectsNonPositivePrice(t *testing.T) {
	s := setupService(t)

	_, err := s.Create(context.Background(), testTicket("T1", "1000"), decimal.Zero, "0xseller")
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestCreate_UniqueIDsForSameTicket(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	// Back-to-back creates land in the same millisecond; the random ID
	// tail keeps them from colliding on the primary key.
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		l, err := s.Create(ctx, testTicket("T1", "1000"), decimal.NewFromInt(1100), "0xseller")
		require.NoError(t, err)
		require.False(t, seen[l.ID], "duplicate listing ID %s", l.ID)
		seen[l.ID] = true
	}
}

func TestList_FiltersByStatusAndIsIdempotent(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	l1, err := s.Create(ctx, testTicket("T1", "1000"), decimal.NewFromInt(1100), "0xseller")
	require.NoError(t, err)
	_, err = s.Create(ctx, testTicket("T2", "500"), decimal.NewFromInt(600), "0xseller")
	require.NoError(t, err)

	_, err = s.MarkSold(ctx, l1.ID, "0xbuyer", l1.Version)
	require.NoError(t, err)

	listed, err := s.List(ctx, domain.ListingStatusListed)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "T2", listed[0].TicketID)

	sold, err := s.List(ctx, domain.ListingStatusSold)
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, l1.ID, sold[0].ID)

	again, err := s.List(ctx, domain.ListingStatusListed)
	require.NoError(t, err)
	assert.Equal(t, listed, again)
}

func TestMarkSold_TransitionsOnce(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	l, err := s.Create(ctx, testTicket("T1", "1000"), decimal.NewFromInt(1200), "0xseller")
	require.NoError(t, err)

	sold, err := s.MarkSold(ctx, l.ID, "0xbuyer", l.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingStatusSold, sold.Status)
	require.NotNil(t, sold.BuyerAddress)
	assert.Equal(t, "0xbuyer", *sold.BuyerAddress)
	assert.NotNil(t, sold.SoldAt)
	assert.Equal(t, l.Version+1, sold.Version)

	// A sold listing is immutable: a second sale must fail explicitly.
	_, err = s.MarkSold(ctx, l.ID, "0xother", sold.Version)
	assert.ErrorIs(t, err, domain.ErrAlreadySold)
}

func TestMarkSold_NotFound(t *testing.T) {
	s := setupService(t)

	_, err := s.MarkSold(context.Background(), "missing-1", "0xbuyer", 1)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestMarkSold_VersionConflict(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	l, err := s.Create(ctx, testTicket("T1", "1000"), decimal.NewFromInt(1200), "0xseller")
	require.NoError(t, err)

	// Stale version: the caller read version 1 but the row moved on.
	require.NoError(t, s.DB.Model(&domain.Listing{}).Where("id = ?", l.ID).
		Update("version", l.Version+1).Error)

	_, err = s.MarkSold(ctx, l.ID, "0xbuyer", l.Version)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}
