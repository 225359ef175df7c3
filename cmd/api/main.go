package main

import (
	"context"
	"database/sql"
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

	"sigillum/docs"
	"sigillum/internal/config"
	"sigillum/internal/database"
	"sigillum/internal/database/migration"
	"sigillum/internal/hash"
	handlers "sigillum/internal/http/handler"
	"sigillum/internal/http/middleware"
	"sigillum/internal/otel"
	"sigillum/internal/qrstamp"
	"sigillum/internal/registry"
	registryPostgres "sigillum/internal/registry/postgres"
	registrySQLite "sigillum/internal/registry/sqlite"
	"sigillum/internal/service"
	"sigillum/internal/storage"
)

// @title Sigillum API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Tracing bootstrap; degrades to a noop provider when the exporter is
	// unreachable or OTEL_SDK_DISABLED=true
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Backend selection happens exactly once, here. Everything downstream
	// works against the registry and storage interfaces.
	db, dialect, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, dialect); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var reg registry.DocumentRegistry
	switch dialect {
	case migration.SQLite:
		reg = registrySQLite.NewDocumentSQLite(db)
	default:
		reg = registryPostgres.NewDocumentPostgres(db)
	}

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	hasher, err := hash.New(hash.Algorithm(cfg.HashAlgo))
	if err != nil {
		log.Fatalf("invalid hash configuration: %v", err)
	}

	certSvc := service.NewCertificationService(store, reg, qrstamp.New(), hasher, service.Options{
		BaseURL:        cfg.BaseURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.MaxUploadBytes) + 1024*1024, // multipart overhead
	})

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, certSvc, middleware.Auth(cfg.AdminToken))

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

func openDatabase(cfg *config.AppConfig) (*sql.DB, migration.Dialect, error) {
	if cfg.DBMode == "postgres" {
		db, err := database.NewPostgres(cfg.Database)
		return db, migration.Postgres, err
	}
	db, err := database.NewSQLite(cfg.SQLitePath)
	return db, migration.SQLite, err
}

func openStorage(cfg *config.AppConfig) (storage.Service, error) {
	if cfg.StorageMode == "s3" {
		return storage.NewMinIO(cfg.MinIO)
	}
	return storage.NewLocal(cfg.LocalStorageDir)
}
