package bootstrap

import (
	"stagepass-backend/internal/app"
	"stagepass-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for the serverless entry point, which cannot
// import internal packages directly.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, _, _, err := app.CreateApp(cfg)
	return a, err
}
