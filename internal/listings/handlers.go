package listings

import (
	"encoding/json"
	"errors"

	"stagepass-backend/internal/currency"
	"stagepass-backend/internal/domain"
	"stagepass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// TicketSource is the slice of the ticket ledger the marketplace reads
// when seeding a listing.
type TicketSource interface {
	Get(id string) (*domain.Ticket, error)
}

// Handlers bundles listing handlers with the store and ticket ledger.
type Handlers struct {
	Store   Store
	Tickets TicketSource
}

type createListingRequest struct {
	TicketID      string      `json:"ticket_id"`
	ResalePrice   json.Number `json:"resale_price"`
	SellerAddress string      `json:"seller_address"`
}

// CreateListing POST /api/v1/listings
func (h *Handlers) CreateListing(c *fiber.Ctx) error {
	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	if req.TicketID == "" {
		return response.Error(c, "Missing required field: ticket_id", 400, nil)
	}
	if req.SellerAddress == "" {
		return response.Error(c, "Missing required field: seller_address", 400, nil)
	}

	resalePrice, err := currency.ParseAmount(req.ResalePrice.String())
	if err != nil {
		return response.Error(c, "resale_price must be a number", 400, nil)
	}

	ticket, err := h.Tickets.Get(req.TicketID)
	if err != nil {
		if errors.Is(err, domain.ErrTicketNotFound) {
			return response.Error(c, "Ticket not found", 404, nil)
		}
		log.Error().Err(err).Str("ticket_id", req.TicketID).Msg("listings: ticket lookup failed")
		return response.Error(c, "Failed to read ticket ledger", 500, nil)
	}

	listing, err := h.Store.Create(c.Context(), *ticket, resalePrice, req.SellerAddress)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPrice):
			return response.Error(c, "Resale price must be greater than zero", 400, nil)
		case errors.Is(err, domain.ErrPriceExceedsMarkup):
			return response.Error(c, err.Error(), 400, nil)
		default:
			log.Error().Err(err).Str("ticket_id", req.TicketID).Msg("listings: create failed")
			return response.Error(c, "Failed to create listing", 500, nil)
		}
	}

	return response.SuccessCreated(c, "Ticket listed for resale", listing, fiber.Map{
		"fees": fiber.Map{
			"royalty":         listing.RoyaltyAmount,
			"platform_fee":    listing.PlatformFee,
			"seller_receives": listing.SellerReceives,
		},
	})
}

// GetListings GET /api/v1/listings?status=listed|sold
func (h *Handlers) GetListings(c *fiber.Ctx) error {
	status := domain.ListingStatus(c.Query("status"))
	switch status {
	case "", domain.ListingStatusListed, domain.ListingStatusSold:
	default:
		return response.Error(c, "status must be 'listed' or 'sold'", 400, nil)
	}

	listings, err := h.Store.List(c.Context(), status)
	if err != nil {
		log.Error().Err(err).Msg("listings: list failed")
		return response.Error(c, "Failed to fetch listings", 500, nil)
	}
	return response.Success(c, "Listings fetched successfully", listings, fiber.Map{"count": len(listings)})
}

// GetListingByID GET /api/v1/listings/:id
func (h *Handlers) GetListingByID(c *fiber.Ctx) error {
	id := c.Params("id")
	listing, err := h.Store.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return response.Error(c, "Listing not found", 404, nil)
		}
		log.Error().Err(err).Str("listing_id", id).Msg("listings: get failed")
		return response.Error(c, "Failed to fetch listing", 500, nil)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}
