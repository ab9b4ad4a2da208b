package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatgw/docs"
	"chatgw/internal/auth"
	"chatgw/internal/backend"
	cachesqlite "chatgw/internal/cache/sqlite"
	"chatgw/internal/config"
	"chatgw/internal/database"
	"chatgw/internal/database/migration"
	handlers "chatgw/internal/http/handler"
	"chatgw/internal/http/middleware"
	"chatgw/internal/otel"
	"chatgw/internal/service"
)

// @title Chat Gateway API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx := context.Background()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Initialize tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Open the local cache database and run migrations
	db, err := database.NewSQLite(cfg.Cache)
	if err != nil {
		log.Fatalf("failed to open cache database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Cache.Path); err != nil {
		log.Fatalf("failed to migrate cache database: %v", err)
	}

	recordCache := cachesqlite.NewRecordCache(db)

	// HTTP clients for the remote document store and chat endpoint
	docBackend, chatBackend, err := backend.NewHTTP(cfg.Backend)
	if err != nil {
		log.Fatalf("failed to initialize backend clients: %v", err)
	}

	// Services hydrate their offline view from the persisted cache on boot
	sessions := service.NewSessionService(ctx, recordCache)
	documents := service.NewDocumentDirectory(ctx, recordCache, docBackend)
	chats := service.NewChatService(ctx, recordCache, chatBackend, documents)

	tokens, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, time.Duration(cfg.Auth.JWTTTLHours)*time.Hour)
	if err != nil {
		log.Fatalf("failed to initialize token manager: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, tokens, sessions, documents, chats)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
