package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TicketStatusActive = "active"
)

// Ticket is a minted concert ticket as recorded in the flat-file ledger.
// The marketplace only reads Price and ImageURL when seeding a listing;
// the ledger owns the rest of the lifecycle.
type Ticket struct {
	ID            string          `json:"id"`
	SeatID        string          `json:"seatId"`
	ImageURL      string          `json:"imageUrl"`
	TxHash        string          `json:"txHash"`
	Venue         string          `json:"venue"`
	Price         decimal.Decimal `json:"price"`
	Date          string          `json:"date"`
	WalletAddress string          `json:"walletAddress"`
	Status        string          `json:"status"`
	MintedAt      time.Time       `json:"mintedAt"`
}
