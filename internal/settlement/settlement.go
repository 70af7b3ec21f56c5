// Package settlement talks to the chain that settles resale purchases.
// The buyer's wallet signs and submits the transfer client-side; the
// backend's job is to verify the submitted transaction and wait for
// finality before any listing state changes hands.
package settlement

import "context"

// Payment describes the transfer the buyer's wallet claims to have
// submitted: the transaction hash plus what the marketplace expects it
// to contain.
type Payment struct {
	TxHash    string
	Recipient string
	Octas     int64
}

// Handle identifies an initiated settlement awaiting confirmation.
type Handle struct {
	TxHash    string
	Recipient string
	Octas     int64
}

// Confirmation is the finalized settlement result.
type Confirmation struct {
	Hash     string
	GasUsed  uint64
	VMStatus string
}

// Client is the two-phase settlement collaborator. Confirm blocks until
// the transaction is finalized, the context expires, or the chain rejects
// it; cancellation and timeout arrive through ctx.
type Client interface {
	Initiate(ctx context.Context, p Payment) (Handle, error)
	Confirm(ctx context.Context, h Handle) (*Confirmation, error)
}
