package purchases

import (
	"context"
	"errors"

	"stagepass-backend/internal/currency"
	"stagepass-backend/internal/domain"
	"stagepass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// BalanceReader reads on-chain wallet balances (octas).
type BalanceReader interface {
	AccountBalance(ctx context.Context, address string) (int64, error)
}

// Handlers bundles purchase handlers with the orchestrator.
type Handlers struct {
	Service  *Service
	Balances BalanceReader
}

type purchaseRequest struct {
	BuyerAddress string `json:"buyer_address"`
	TxHash       string `json:"tx_hash"`
}

// PurchaseListing POST /api/v1/listings/:id/purchase
func (h *Handlers) PurchaseListing(c *fiber.Ctx) error {
	listingID := c.Params("id")

	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	if req.BuyerAddress == "" {
		return response.Error(c, "Missing required field: buyer_address", 400, nil)
	}
	if req.TxHash == "" {
		return response.Error(c, "Missing required field: tx_hash", 400, nil)
	}

	receipt, err := h.Service.Purchase(c.Context(), listingID, req.BuyerAddress, req.TxHash)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrListingNotFound):
			return response.Error(c, "Listing not found", 404, nil)
		case errors.Is(err, domain.ErrAlreadySold):
			return response.Error(c, "Listing already sold", 409, nil)
		case errors.Is(err, domain.ErrVersionConflict):
			return response.Error(c, "Listing was modified concurrently, retry the purchase", 409, nil)
		case errors.Is(err, domain.ErrConsistency):
			// Paid but unrecorded: surfaced loudly, not retried here.
			return response.Error(c, err.Error(), 500, fiber.Map{"audit": domain.AuditPaidUnrecordedSale})
		case errors.Is(err, domain.ErrSettlementFailed):
			return response.Error(c, err.Error(), 402, nil)
		default:
			log.Error().Err(err).Str("listing_id", listingID).Msg("purchases: purchase failed")
			return response.Error(c, "Purchase failed", 500, nil)
		}
	}

	return response.Success(c, "Purchase successful", receipt, nil)
}

// GetWalletBalance GET /api/v1/wallets/:address/balance
func (h *Handlers) GetWalletBalance(c *fiber.Ctx) error {
	address := c.Params("address")
	if address == "" {
		return response.Error(c, "Missing wallet address", 400, nil)
	}

	octas, err := h.Balances.AccountBalance(c.Context(), address)
	if err != nil {
		log.Error().Err(err).Str("address", address).Msg("purchases: balance lookup failed")
		return response.Error(c, "Failed to fetch wallet balance", 502, nil)
	}

	apt := currency.FromOctas(octas)
	return response.Success(c, "Balance fetched successfully", fiber.Map{
		"address":   address,
		"octas":     octas,
		"formatted": currency.Format(apt),
	}, nil)
}
