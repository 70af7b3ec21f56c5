package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus is the lifecycle state of a resale listing.
// Transitions are one-way: listed -> sold.
type ListingStatus string

const (
	ListingStatusListed ListingStatus = "listed"
	ListingStatusSold   ListingStatus = "sold"
)

// Listing is a resale offer for a previously minted ticket.
// Prices are in the display currency (INR); fee amounts are derived once at
// creation and immutable afterwards. Version supports compare-and-swap on
// the listed -> sold transition.
type Listing struct {
	ID             string          `gorm:"column:id;primaryKey" json:"id"`
	TicketID       string          `gorm:"column:ticket_id;not null;index" json:"ticket_id"`
	Seller         string          `gorm:"column:seller;not null" json:"seller"`
	OriginalPrice  decimal.Decimal `gorm:"column:original_price;type:decimal(18,2);not null" json:"original_price"`
	ResalePrice    decimal.Decimal `gorm:"column:resale_price;type:decimal(18,2);not null" json:"resale_price"`
	RoyaltyAmount  decimal.Decimal `gorm:"column:royalty_amount;type:decimal(18,8);not null" json:"royalty_amount"`
	PlatformFee    decimal.Decimal `gorm:"column:platform_fee;type:decimal(18,8);not null" json:"platform_fee"`
	SellerReceives decimal.Decimal `gorm:"column:seller_receives;type:decimal(18,8);not null" json:"seller_receives"`
	Status         ListingStatus   `gorm:"column:status;type:varchar(10);not null;default:'listed'" json:"status"`
	Version        int             `gorm:"column:version;not null;default:1" json:"version"`
	BuyerAddress   *string         `gorm:"column:buyer_address" json:"buyer_address,omitempty"`
	SoldAt         *time.Time      `gorm:"column:sold_at" json:"sold_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Listing) TableName() string {
	return "Listings"
}

// Validate rejects malformed records before they reach the store.
// The fee parts must reconstruct the resale price exactly.
func (l *Listing) Validate() error {
	if l.ID == "" || l.TicketID == "" || l.Seller == "" {
		return ErrInvalidListing
	}
	if l.Status != ListingStatusListed && l.Status != ListingStatusSold {
		return ErrInvalidListing
	}
	if !l.ResalePrice.IsPositive() {
		return ErrInvalidPrice
	}
	sum := l.RoyaltyAmount.Add(l.PlatformFee).Add(l.SellerReceives)
	if !sum.Equal(l.ResalePrice) {
		return ErrInvalidListing
	}
	return nil
}

// Sold reports whether the listing has completed its lifecycle.
func (l *Listing) Sold() bool {
	return l.Status == ListingStatusSold
}
