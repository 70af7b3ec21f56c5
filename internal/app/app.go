package app

import (
	"context"

	"stagepass-backend/internal/config"
	"stagepass-backend/internal/currency"
	"stagepass-backend/internal/database"
	"stagepass-backend/internal/health"
	"stagepass-backend/internal/listings"
	"stagepass-backend/internal/market"
	"stagepass-backend/internal/middleware"
	"stagepass-backend/internal/purchases"
	"stagepass-backend/internal/settlement"
	"stagepass-backend/internal/tickets"
	"stagepass-backend/internal/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// gormPinger adapts *gorm.DB to the health checker's DBPinger.
type gormPinger struct {
	db *gorm.DB
}

func (p gormPinger) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// pinataPinger adapts the Pinata client's auth check to a dependency ping.
type pinataPinger struct {
	client *uploads.PinataClient
}

func (p pinataPinger) Ping(ctx context.Context) error {
	return p.client.TestAuthentication(ctx)
}

// CreateApp builds the Fiber app with all middleware, collaborator
// clients, and route registration. The returned DB and Redis handles are
// for startup connection checks.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
		BodyLimit:             11 << 20, // image uploads up to 10MB plus multipart overhead
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
		app.Use(middleware.HealthMarker(rdb))
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}

	ledger, err := tickets.NewStore(cfg.TicketsCSVPath)
	if err != nil {
		return nil, nil, nil, err
	}

	params := market.Params{
		MaxMarkupPct:   cfg.MaxMarkupPct,
		RoyaltyPct:     cfg.RoyaltyPct,
		PlatformFeePct: cfg.PlatformFeePct,
	}
	converter := currency.NewConverter(cfg.InrToAptRate)
	node := settlement.NewNodeClient(cfg.AptosNodeURL)
	pinata := uploads.NewPinataClient(cfg.PinataAPIKey, cfg.PinataSecretKey)

	// Health endpoints
	healthHandlers := &health.Handlers{
		Checker: &health.Checker{
			Rdb:    rdb,
			DB:     gormPinger{db},
			Node:   node,
			Pinata: pinataPinger{pinata},
		},
		AdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", healthHandlers.JSON)
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/errors", healthHandlers.Errors)
	app.Get("/health/reset", healthHandlers.Reset)

	// Ticket ledger
	ticketHandlers := &tickets.Handlers{Store: ledger}
	ticketGroup := app.Group("/api/v1/tickets")
	ticketGroup.Post("/", ticketHandlers.CreateTicket)
	ticketGroup.Get("/", ticketHandlers.GetTickets)
	ticketGroup.Delete("/:id", ticketHandlers.DeleteTicket)

	// Marketplace listings
	listingStore := &listings.Service{DB: db, Params: params}
	listingHandlers := &listings.Handlers{Store: listingStore, Tickets: ledger}
	listingGroup := app.Group("/api/v1/listings")
	listingGroup.Post("/", listingHandlers.CreateListing)
	listingGroup.Get("/", listingHandlers.GetListings)
	listingGroup.Get("/:id", listingHandlers.GetListingByID)

	// Purchases + wallet balances
	purchaseService := &purchases.Service{
		Listings:   listingStore,
		Settlement: node,
		Converter:  converter,
		DB:         db,
		Timeout:    cfg.SettlementTimeout,
	}
	purchaseHandlers := &purchases.Handlers{Service: purchaseService, Balances: node}
	listingGroup.Post("/:id/purchase", purchaseHandlers.PurchaseListing)
	app.Get("/api/v1/wallets/:address/balance", purchaseHandlers.GetWalletBalance)

	// Image pinning
	uploadService := &uploads.Service{Pinner: pinata, GatewayURL: cfg.PinataGatewayURL}
	uploadHandlers := &uploads.Handlers{Service: uploadService}
	app.Post("/api/v1/uploads/ticket-image", uploadHandlers.UploadTicketImage)

	return app, db, rdb, nil
}
