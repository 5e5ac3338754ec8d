package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/presenca/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/presenca/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/presenca/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/database"
	"github.com/saturnino-fabrica-de-software/presenca/internal/ws"
)

// Version is reported by /health
const Version = "1.0.0"

type Dependencies struct {
	Config      *config.Config
	FaceService handler.FaceService
	// Decisions is nil when no database is configured
	Decisions handler.DecisionReader
	DB        database.Pinger
	Extractor handler.Pinger
	// Feed streams decisions over websocket when set
	Feed *ws.Hub
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	cfg := fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Presenca API",
	}
	if deps != nil && deps.Config != nil {
		// Leave room for the multipart envelope around the image
		cfg.BodyLimit = deps.Config.MaxImageBytes + 1<<20
	}

	return &Router{
		app:    fiber.New(cfg),
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(Version, r.readinessChecks(), r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	v1 := r.app.Group("/v1")

	if r.deps == nil || r.deps.FaceService == nil {
		return
	}

	// Rate limiting per client IP
	limiterCfg := middleware.DefaultRateLimiterConfig()
	if r.deps.Config != nil {
		limiterCfg.Max = r.deps.Config.RateLimitMax
		limiterCfg.Window = r.deps.Config.RateLimitWindow
	}
	r.rateLimiter = middleware.NewRateLimiter(limiterCfg)
	v1.Use(r.rateLimiter.Handler())

	maxImage := int64(0)
	if r.deps.Config != nil {
		maxImage = int64(r.deps.Config.MaxImageBytes)
	}
	faceHandler := handler.NewFaceHandler(r.deps.FaceService, maxImage, r.logger)

	// Face routes
	v1.Post("/faces/enroll", faceHandler.Enroll)
	v1.Post("/faces/verify", faceHandler.Verify)
	v1.Post("/faces/recognize-batch", faceHandler.RecognizeBatch)
	v1.Post("/liveness", faceHandler.CheckLiveness)

	// Decision audit routes
	if r.deps.Decisions != nil {
		decisionsHandler := handler.NewDecisionsHandler(r.deps.Decisions, r.logger)
		v1.Get("/decisions", decisionsHandler.List)
		v1.Get("/decisions/summary", decisionsHandler.Summary)
	}

	// Live decision feed
	if r.deps.Feed != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Feed.Run(hubCtx)

		v1.Get("/decisions/stream", ws.UpgradeMiddleware(), ws.Handler(r.deps.Feed))
	}
}

func (r *Router) readinessChecks() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{}
	if r.deps == nil {
		return checks
	}
	if r.deps.DB != nil {
		checks["database"] = dbCheck{db: r.deps.DB}
	}
	if r.deps.Extractor != nil {
		checks["extractor"] = r.deps.Extractor
	}
	return checks
}

type dbCheck struct {
	db database.Pinger
}

func (d dbCheck) Ping(ctx context.Context) error {
	return database.HealthCheck(ctx, d.db)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop decision feed hub
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
