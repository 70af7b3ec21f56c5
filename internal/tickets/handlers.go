package tickets

import (
	"encoding/json"
	"errors"
	"time"

	"stagepass-backend/internal/currency"
	"stagepass-backend/internal/domain"
	"stagepass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles ticket ledger handlers with the store.
type Handlers struct {
	Store *Store
}

type createTicketRequest struct {
	ID            string      `json:"id"`
	SeatID        string      `json:"seatId"`
	ImageURL      string      `json:"imageUrl"`
	TxHash        string      `json:"txHash"`
	Venue         string      `json:"venue"`
	Price         json.Number `json:"price"`
	Date          string      `json:"date"`
	WalletAddress string      `json:"walletAddress"`
	Status        string      `json:"status"`
	MintedAt      string      `json:"mintedAt"`
}

// CreateTicket POST /api/v1/tickets
func (h *Handlers) CreateTicket(c *fiber.Ctx) error {
	var req createTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	if req.ID == "" {
		return response.Error(c, "Missing required field: id", 400, nil)
	}
	if req.SeatID == "" {
		return response.Error(c, "Missing required field: seatId", 400, nil)
	}
	if req.WalletAddress == "" {
		return response.Error(c, "Missing required field: walletAddress", 400, nil)
	}

	price, err := currency.ParseAmount(req.Price.String())
	if err != nil {
		return response.Error(c, "price must be a number", 400, nil)
	}

	status := req.Status
	if status == "" {
		status = domain.TicketStatusActive
	}
	mintedAt := time.Now()
	if req.MintedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.MintedAt)
		if err != nil {
			return response.Error(c, "mintedAt must be an RFC 3339 timestamp", 400, nil)
		}
		mintedAt = parsed
	}

	ticket := domain.Ticket{
		ID:            req.ID,
		SeatID:        req.SeatID,
		ImageURL:      req.ImageURL,
		TxHash:        req.TxHash,
		Venue:         req.Venue,
		Price:         price,
		Date:          req.Date,
		WalletAddress: req.WalletAddress,
		Status:        status,
		MintedAt:      mintedAt,
	}

	if err := h.Store.Append(ticket); err != nil {
		if errors.Is(err, domain.ErrDuplicateTicket) {
			return response.Error(c, "Ticket already recorded", 409, nil)
		}
		log.Error().Err(err).Str("ticket_id", req.ID).Msg("tickets: append failed")
		return response.Error(c, "Failed to save ticket", 500, nil)
	}

	return response.SuccessCreated(c, "Ticket saved successfully", ticket, nil)
}

// GetTickets GET /api/v1/tickets?status=active
func (h *Handlers) GetTickets(c *fiber.Ctx) error {
	tickets, err := h.Store.List(c.Query("status"))
	if err != nil {
		log.Error().Err(err).Msg("tickets: list failed")
		return response.Error(c, "Failed to read tickets", 500, nil)
	}
	return response.Success(c, "Tickets fetched successfully", fiber.Map{"tickets": tickets}, fiber.Map{"count": len(tickets)})
}

// DeleteTicket DELETE /api/v1/tickets/:id
func (h *Handlers) DeleteTicket(c *fiber.Ctx) error {
	if err := h.Store.Remove(c.Params("id")); err != nil {
		log.Error().Err(err).Str("ticket_id", c.Params("id")).Msg("tickets: remove failed")
		return response.Error(c, "Failed to remove ticket", 500, nil)
	}
	return response.Success(c, "Ticket removed", nil, nil)
}
