package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stagepass-backend/internal/domain"
	"stagepass-backend/internal/market"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store is the listing collection abstraction. The purchase orchestrator
// and handlers depend on this interface, not on the GORM service, so tests
// can substitute their own implementation.
type Store interface {
	Create(ctx context.Context, ticket domain.Ticket, resalePrice decimal.Decimal, seller string) (*domain.Listing, error)
	List(ctx context.Context, status domain.ListingStatus) ([]domain.Listing, error)
	Get(ctx context.Context, id string) (*domain.Listing, error)
	MarkSold(ctx context.Context, id, buyer string, expectedVersion int) (*domain.Listing, error)
}

// Service is the GORM-backed Store (SQLite locally, Postgres in
// production).
type Service struct {
	DB     *gorm.DB
	Params market.Params
}

var _ Store = (*Service)(nil)

// Create validates the resale price, computes the fee distribution, and
// persists a new listed record. The listing ID is the ticket ID suffixed
// with the creation time plus a random tail, so relisting the same ticket
// never collides, even within the same millisecond.
func (s *Service) Create(ctx context.Context, ticket domain.Ticket, resalePrice decimal.Decimal, seller string) (*domain.Listing, error) {
	if err := s.Params.ValidateResalePrice(ticket.Price, resalePrice); err != nil {
		return nil, err
	}
	dist := s.Params.Distribute(resalePrice)

	listing := &domain.Listing{
		ID:             fmt.Sprintf("%s-%d-%s", ticket.ID, time.Now().UnixMilli(), uuid.NewString()[:8]),
		TicketID:       ticket.ID,
		Seller:         seller,
		OriginalPrice:  ticket.Price,
		ResalePrice:    resalePrice,
		RoyaltyAmount:  dist.Royalty,
		PlatformFee:    dist.PlatformFee,
		SellerReceives: dist.SellerReceives,
		Status:         domain.ListingStatusListed,
		Version:        1,
	}
	if err := listing.Validate(); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return listing, nil
}

// List returns listings matching status in insertion order; empty status
// returns everything.
func (s *Service) List(ctx context.Context, status domain.ListingStatus) ([]domain.Listing, error) {
	q := s.DB.WithContext(ctx).Order("created_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var listings []domain.Listing
	if err := q.Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Listing, error) {
	var listing domain.Listing
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &listing, nil
}

// MarkSold performs the listed -> sold transition as a single
// compare-and-swap on (id, status, version). A sold listing is immutable:
// selling it again fails with ErrAlreadySold, and a concurrent mutation
// since the caller read the listing fails with ErrVersionConflict.
func (s *Service) MarkSold(ctx context.Context, id, buyer string, expectedVersion int) (*domain.Listing, error) {
	now := time.Now()
	res := s.DB.WithContext(ctx).Model(&domain.Listing{}).
		Where("id = ? AND status = ? AND version = ?", id, domain.ListingStatusListed, expectedVersion).
		Updates(map[string]interface{}{
			"status":        domain.ListingStatusSold,
			"buyer_address": buyer,
			"sold_at":       now,
			"version":       expectedVersion + 1,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("mark sold: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var current domain.Listing
		if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrListingNotFound
			}
			return nil, fmt.Errorf("mark sold: %w", err)
		}
		if current.Sold() {
			return nil, domain.ErrAlreadySold
		}
		return nil, domain.ErrVersionConflict
	}

	return s.Get(ctx, id)
}
