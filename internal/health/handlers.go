package health

import (
	"context"

	"stagepass-backend/internal/middleware"
	"stagepass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the health endpoints.
type Handlers struct {
	Checker  *Checker
	AdminKey string
}

// JSON GET /health/json
func (h *Handlers) JSON(c *fiber.Ctx) error {
	return c.JSON(h.Checker.Collect(c.Context()))
}

// Errors GET /health/errors — recent 5xx responses.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.Checker.Rdb == nil {
		return response.Error(c, "Redis not configured", 503, nil)
	}
	entries, err := h.Checker.Rdb.LRange(context.Background(), middleware.KeyErrorLog, 0, -1).Result()
	if err != nil {
		return response.Error(c, "Failed to read error log", 500, nil)
	}
	return c.JSON(fiber.Map{"errors": entries})
}

// Reset GET /health/reset — clears counters; requires the admin key.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if h.AdminKey == "" || c.Query("key") != h.AdminKey {
		return response.Error(c, "Unauthorized", 401, nil)
	}
	if h.Checker.Rdb == nil {
		return response.Error(c, "Redis not configured", 503, nil)
	}
	h.Checker.Rdb.Del(context.Background(),
		middleware.KeyReqTotal, middleware.KeyReqErrors,
		middleware.KeyResTime, middleware.KeyResCount,
		middleware.KeyStartTime, middleware.KeyLastReq,
		middleware.KeyErrorLog,
	)
	return response.Success(c, "Health counters reset", nil, nil)
}
