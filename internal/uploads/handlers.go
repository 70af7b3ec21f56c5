package uploads

import (
	"strings"

	"stagepass-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *Service
}

// UploadTicketImage POST /api/v1/uploads/ticket-image (multipart "file")
func (h *Handlers) UploadTicketImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "No file uploaded", 400, nil)
	}

	f, err := fh.Open()
	if err != nil {
		log.Error().Err(err).Msg("uploads: open multipart file failed")
		return response.Error(c, "Upload failed", 500, nil)
	}
	defer f.Close()

	res, err := h.Service.Upload(c.Context(), fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		if strings.Contains(err.Error(), "only image files") || strings.Contains(err.Error(), "10MB") {
			return response.Error(c, err.Error(), 400, nil)
		}
		log.Error().Err(err).Str("filename", fh.Filename).Msg("uploads: pin failed")
		return response.Error(c, "Upload failed", 500, nil)
	}

	return response.Success(c, "Image pinned successfully", res, nil)
}
