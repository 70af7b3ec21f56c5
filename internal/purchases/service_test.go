package purchases

import (
	"context"
	"errors"
	"testing"
	"time"

	"stagepass-backend/internal/currency"
	"stagepass-backend/internal/domain"
	"stagepass-backend/internal/listings"
	"stagepass-backend/internal/market"
	"stagepass-backend/internal/settlement"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSettlement struct {
	initiated  []settlement.Payment
	confirmErr error
	hash       string
}

func (f *fakeSettlement) Initiate(ctx context.Context, p settlement.Payment) (settlement.Handle, error) {
	f.initiated = append(f.initiated, p)
	return settlement.Handle{TxHash: p.TxHash, Recipient: p.Recipient, Octas: p.Octas}, nil
}

func (f *fakeSettlement) Confirm(ctx context.Context, h settlement.Handle) (*settlement.Confirmation, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	hash := f.hash
	if hash == "" {
		hash = h.TxHash
	}
	return &settlement.Confirmation{Hash: hash, GasUsed: 42, VMStatus: "Executed successfully"}, nil
}

func setupPurchase(t *testing.T) (*Service, *listings.Service, *fakeSettlement, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Listing{}, &domain.AuditRecord{}))

	store := &listings.Service{DB: db, Params: market.DefaultParams()}
	chain := &fakeSettlement{}
	svc := &Service{
		Listings:   store,
		Settlement: chain,
		Converter:  currency.NewConverter(decimal.Zero),
		DB:         db,
		Timeout:    time.Second,
	}
	return svc, store, chain, db
}

func seedListing(t *testing.T, store *listings.Service, resale string) *domain.Listing {
	ticket := domain.Ticket{
		ID:            "T1",
		SeatID:        "A-12",
		ImageURL:      "https://gateway.pinata.cloud/ipfs/QmTest",
		Venue:         "Wankhede Stadium",
		Price:         decimal.NewFromInt(1000),
		Date:          "2026-03-14",
		WalletAddress: "0xseller",
		Status:        domain.TicketStatusActive,
		MintedAt:      time.Now(),
	}
	l, err := store.Create(context.Background(), ticket, decimal.RequireFromString(resale), "0xseller")
	require.NoError(t, err)
	return l
}

func TestPurchase_SettlesThenMarksSold(t *testing.T) {
	svc, store, chain, _ := setupPurchase(t)
	l := seedListing(t, store, "1200")

	receipt, err := svc.Purchase(context.Background(), l.ID, "0xbuyer", "0xabc123")
	require.NoError(t, err)

	assert.Equal(t, "0xabc123", receipt.SettlementHash)
	assert.Equal(t, uint64(42), receipt.GasUsed)
	assert.Equal(t, "0.01200000 APT", receipt.Amount)
	assert.True(t, receipt.Fees.Royalty.Equal(decimal.NewFromInt(120)))
	assert.True(t, receipt.Fees.SellerReceives.Equal(decimal.NewFromInt(1050)))

	// Payment goes to the seller, in octas of the converted amount.
	require.Len(t, chain.initiated, 1)
	assert.Equal(t, "0xseller", chain.initiated[0].Recipient)
	assert.Equal(t, int64(1200000), chain.initiated[0].Octas)

	sold, err := store.Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingStatusSold, sold.Status)
	require.NotNil(t, sold.BuyerAddress)
	assert.Equal(t, "0xbuyer", *sold.BuyerAddress)
}

func TestPurchase_AlreadySold(t *testing.T) {
	svc, store, chain, _ := setupPurchase(t)
	l := seedListing(t, store, "1200")

	_, err := svc.Purchase(context.Background(), l.ID, "0xbuyer", "0xabc123")
	require.NoError(t, err)

	_, err = svc.Purchase(context.Background(), l.ID, "0xother", "0xdef456")
	assert.ErrorIs(t, err, domain.ErrAlreadySold)

	// No second payment was initiated for the sold listing.
	assert.Len(t, chain.initiated, 1)
}

func TestPurchase_ListingNotFound(t *testing.T) {
	svc, _, chain, _ := setupPurchase(t)

	_, err := svc.Purchase(context.Background(), "missing-1", "0xbuyer", "0xabc123")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
	assert.Empty(t, chain.initiated)
}

func TestPurchase_SettlementFailureLeavesListingListed(t *testing.T) {
	svc, store, chain, _ := setupPurchase(t)
	l := seedListing(t, store, "1200")
	chain.confirmErr = domain.ErrSettlementFailed

	_, err := svc.Purchase(context.Background(), l.ID, "0xbuyer", "0xabc123")
	assert.ErrorIs(t, err, domain.ErrSettlementFailed)

	current, err := store.Get(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingStatusListed, current.Status)
	assert.Nil(t, current.BuyerAddress)
}

// brokenStore confirms settlement but then refuses the state mutation, the
// one path where money has moved with no matching record.
type brokenStore struct {
	listing *domain.Listing
}

func (b *brokenStore) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return b.listing, nil
}

func (b *brokenStore) MarkSold(ctx context.Context, id, buyer string, expectedVersion int) (*domain.Listing, error) {
	return nil, errors.New("disk full")
}

func TestPurchase_ConsistencyFailureWritesAuditRecord(t *testing.T) {
	svc, store, _, db := setupPurchase(t)
	l := seedListing(t, store, "1200")
	svc.Listings = &brokenStore{listing: l}

	_, err := svc.Purchase(context.Background(), l.ID, "0xbuyer", "0xabc123")
	require.ErrorIs(t, err, domain.ErrConsistency)
	assert.Contains(t, err.Error(), l.ID)
	assert.Contains(t, err.Error(), "0xabc123")

	var records []domain.AuditRecord
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, domain.AuditPaidUnrecordedSale, records[0].Kind)
	assert.Equal(t, l.ID, records[0].ListingID)
	assert.Contains(t, string(records[0].Details), "0xbuyer")
	assert.Contains(t, string(records[0].Details), "disk full")
}

func TestPurchase_ConfirmationTimeout(t *testing.T) {
	svc, store, chain, _ := setupPurchase(t)
	l := seedListing(t, store, "1200")
	svc.Timeout = time.Millisecond
	chain.confirmErr = nil

	slow := &slowSettlement{inner: chain}
	svc.Settlement = slow

	_, err := svc.Purchase(context.Background(), l.ID, "0xbuyer", "0xabc123")
	require.Error(t, err)

	current, getErr := store.Get(context.Background(), l.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.ListingStatusListed, current.Status)
}

// slowSettlement blocks Confirm until the context expires.
type slowSettlement struct {
	inner *fakeSettlement
}

func (s *slowSettlement) Initiate(ctx context.Context, p settlement.Payment) (settlement.Handle, error) {
	return s.inner.Initiate(ctx, p)
}

func (s *slowSettlement) Confirm(ctx context.Context, h settlement.Handle) (*settlement.Confirmation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
