package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	pkgConfig "github.com/kerimovok/go-pkg-utils/config"
	pkgValidator "github.com/kerimovok/go-pkg-utils/validator"
	"go.uber.org/zap"

	"chat-files-api/internal/access"
	"chat-files-api/internal/config"
	"chat-files-api/internal/constants"
	"chat-files-api/internal/database"
	"chat-files-api/internal/handlers"
	"chat-files-api/internal/quota"
	"chat-files-api/internal/repository"
	"chat-files-api/internal/routes"
	"chat-files-api/internal/services"
	"chat-files-api/internal/storage"
	"chat-files-api/internal/thumbnail"
	"chat-files-api/internal/utils"
	"chat-files-api/internal/validation"
)

func init() {
	// Load all configs
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("failed to load configs: %v", err)
	}

	// Validate environment variables
	if err := pkgValidator.ValidateConfig(constants.EnvValidationRules); err != nil {
		log.Fatalf("configuration validation failed: %v", err)
	}

	// Connect to database
	if err := database.ConnectDB(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
}

func newLogger() *zap.Logger {
	if pkgConfig.GetEnv("GO_ENV") == "production" {
		zl, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("failed to build logger: %v", err)
		}
		return zl
	}
	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return zl
}

func setupApp() *fiber.App {
	app := fiber.New(fiber.Config{
		// Room for the largest accepted upload plus multipart overhead.
		BodyLimit: 510 * 1024 * 1024,
	})

	// Middleware
	app.Use(helmet.New())
	app.Use(cors.New())
	app.Use(compress.New())
	app.Use(healthcheck.New())
	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return uuid.New().String()
		},
	}))
	app.Use(logger.New())

	return app
}

// applyInstanceLimits pushes the configured ceilings into the lazily
// created settings row.
func applyInstanceLimits(ctx context.Context, quotas repository.QuotaRepository, cfg config.QuotaSettings, zl *zap.Logger) {
	defaultQuota, err := utils.ParseSizeString(cfg.DefaultQuota)
	if err != nil {
		zl.Warn("invalid default_quota, keeping stored value", zap.Error(err))
		return
	}
	maxFile, err := utils.ParseSizeString(cfg.MaxFileSize)
	if err != nil {
		zl.Warn("invalid max_file_size, keeping stored value", zap.Error(err))
		return
	}
	if err := quotas.UpdateSettings(ctx, defaultQuota, maxFile); err != nil {
		zl.Error("failed to apply instance limits", zap.Error(err))
	}
}

func main() {
	zl := newLogger()
	defer zl.Sync()

	cfg := config.GetConfig().Files

	backend, err := storage.NewLocalBackend(
		cfg.Storage.Root,
		fs.FileMode(cfg.Storage.FilePermissions),
		fs.FileMode(cfg.Storage.DirPermissions),
	)
	if err != nil {
		log.Fatalf("failed to initialize storage backend: %v", err)
	}

	// Repositories
	fileRepo := repository.NewFileRepository(database.DB)
	quotaRepo := repository.NewQuotaRepository(database.DB)
	chatDir := repository.NewChatDirectory(database.DB)

	applyInstanceLimits(context.Background(), quotaRepo, cfg.Quota, zl)

	// Services
	ledger := quota.NewLedger(quotaRepo, fileRepo, zl)
	authorizer := access.NewAuthorizer(chatDir, zl)
	thumbs := thumbnail.NewGenerator(backend, thumbnail.ExecRunner(), cfg.Thumbnails, zl)
	fileService := services.NewFileService(
		fileRepo, ledger, validation.NewRegistry(), authorizer, backend, thumbs, zl,
	)
	statsService := services.NewStatsService(fileRepo, quotaRepo)
	sweeper := services.NewSweeper(fileRepo, ledger, backend, cfg.Cleanup, zl)

	// Setup Fiber app
	app := setupApp()

	// Setup routes
	routes.SetupRoutes(app, pkgConfig.GetEnv("JWT_SECRET"),
		handlers.NewFileHandler(fileService),
		handlers.NewStorageHandler(ledger, statsService),
	)

	// Periodic purge/reconcile sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	if cfg.Cleanup.Enabled {
		go sweeper.Start(sweepCtx)
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		zl.Info("gracefully shutting down")
		stopSweep()

		if err := app.Shutdown(); err != nil {
			zl.Error("error during server shutdown", zap.Error(err))
		}

		zl.Info("server stopped")
		os.Exit(0)
	}()

	// Start server
	if err := app.Listen(":" + pkgConfig.GetEnv("PORT")); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to start server: %v", err)
	}
}
