package purchases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stagepass-backend/internal/currency"
	"stagepass-backend/internal/domain"
	"stagepass-backend/internal/market"
	"stagepass-backend/internal/settlement"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ListingStore is the slice of the listing store the orchestrator needs.
type ListingStore interface {
	Get(ctx context.Context, id string) (*domain.Listing, error)
	MarkSold(ctx context.Context, id, buyer string, expectedVersion int) (*domain.Listing, error)
}

// Receipt bundles the settlement reference with the fee breakdown of the
// purchased listing.
type Receipt struct {
	Listing        *domain.Listing     `json:"listing"`
	SettlementHash string              `json:"settlement_hash"`
	GasUsed        uint64              `json:"gas_used"`
	Amount         string              `json:"amount"`
	Fees           market.Distribution `json:"fees"`
}

// Service coordinates settlement with the listing-state mutation.
// Ordering is strict: the chain confirms the transfer before the listing
// is marked sold, never the other way around.
type Service struct {
	Listings   ListingStore
	Settlement settlement.Client
	Converter  currency.Converter
	DB         *gorm.DB
	Timeout    time.Duration
}

// Purchase settles a buyer's payment for a listing and records the sale.
func (s *Service) Purchase(ctx context.Context, listingID, buyer, txHash string) (*Receipt, error) {
	listing, err := s.Listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Sold() {
		return nil, domain.ErrAlreadySold
	}

	amount := s.Converter.ToSettlementUnits(listing.ResalePrice)
	handle, err := s.Settlement.Initiate(ctx, settlement.Payment{
		TxHash:    txHash,
		Recipient: listing.Seller,
		Octas:     s.Converter.Octas(amount),
	})
	if err != nil {
		return nil, err
	}

	confirmCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		confirmCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	conf, err := s.Settlement.Confirm(confirmCtx, handle)
	if err != nil {
		return nil, err
	}

	updated, err := s.Listings.MarkSold(ctx, listing.ID, buyer, listing.Version)
	if err != nil {
		s.recordConsistencyFailure(ctx, listing, buyer, conf.Hash, err)
		return nil, fmt.Errorf("%w: listing %s paid in txn %s: %v",
			domain.ErrConsistency, listing.ID, conf.Hash, err)
	}

	return &Receipt{
		Listing:        updated,
		SettlementHash: conf.Hash,
		GasUsed:        conf.GasUsed,
		Amount:         currency.Format(amount),
		Fees: market.Distribution{
			Total:          updated.ResalePrice,
			Royalty:        updated.RoyaltyAmount,
			PlatformFee:    updated.PlatformFee,
			SellerReceives: updated.SellerReceives,
		},
	}, nil
}

// recordConsistencyFailure persists a paid-but-unrecorded sale to the
// audit log. This is the one condition that must never be swallowed: the
// buyer's money moved but the listing still reads listed.
func (s *Service) recordConsistencyFailure(ctx context.Context, listing *domain.Listing, buyer, txHash string, cause error) {
	details, _ := json.Marshal(map[string]interface{}{
		"listing_id": listing.ID,
		"ticket_id":  listing.TicketID,
		"seller":     listing.Seller,
		"buyer":      buyer,
		"tx_hash":    txHash,
		"error":      cause.Error(),
	})

	log.Error().
		Str("audit", domain.AuditPaidUnrecordedSale).
		Str("listing_id", listing.ID).
		Str("tx_hash", txHash).
		Str("buyer", buyer).
		Err(cause).
		Msg("CONSISTENCY FAILURE: settlement confirmed but listing not marked sold")

	if s.DB == nil {
		return
	}
	record := &domain.AuditRecord{
		Kind:      domain.AuditPaidUnrecordedSale,
		ListingID: listing.ID,
		Details:   details,
	}
	if err := s.DB.WithContext(ctx).Create(record).Error; err != nil {
		log.Error().Err(err).Str("listing_id", listing.ID).Msg("audit record write failed")
	}
}
