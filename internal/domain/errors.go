package domain

import "errors"

// Marketplace error taxonomy. Handlers map these to HTTP status codes;
// services wrap them with context via fmt.Errorf("...: %w", err).
var (
	// ErrInvalidPrice rejects zero or negative resale prices.
	ErrInvalidPrice = errors.New("resale price must be greater than zero")

	// ErrPriceExceedsMarkup rejects resale prices above the markup cap.
	ErrPriceExceedsMarkup = errors.New("resale price exceeds maximum markup")

	// ErrInvalidAmount is returned when a money amount cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidListing rejects malformed listing records at the store boundary.
	ErrInvalidListing = errors.New("invalid listing record")

	ErrListingNotFound = errors.New("listing not found")
	ErrAlreadySold     = errors.New("listing already sold")

	// ErrVersionConflict signals a lost compare-and-swap on a listing
	// (another client mutated it since it was read).
	ErrVersionConflict = errors.New("listing version conflict")

	// ErrSettlementFailed covers wallet/chain rejection, an on-chain
	// transfer that does not match the listing, and confirmation timeouts.
	ErrSettlementFailed = errors.New("settlement failed")

	// ErrConsistency is fatal: settlement was confirmed on chain but the
	// listing could not be marked sold. The sale is paid but unrecorded;
	// an audit record is written whenever this is returned.
	ErrConsistency = errors.New("settlement confirmed but listing update failed")

	ErrTicketNotFound  = errors.New("ticket not found")
	ErrDuplicateTicket = errors.New("ticket already recorded")

	ErrUploadFailed = errors.New("upload failed")
)
