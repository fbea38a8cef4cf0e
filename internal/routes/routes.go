package routes

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chat-files-api/internal/handlers"
	"chat-files-api/internal/middleware"
)

// SetupRoutes wires all HTTP routes.
func SetupRoutes(app *fiber.App, jwtSecret string, fileHandler *handlers.FileHandler, storageHandler *handlers.StorageHandler) {
	// Metrics route
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"service":   "chat-files-api",
			"timestamp": time.Now().UTC(),
		})
	})

	// API routes group
	api := app.Group("/api")
	v1 := api.Group("/v1", middleware.Auth(jwtSecret))

	// File routes
	files := v1.Group("/files")
	files.Post("/", fileHandler.UploadFile)
	files.Get("/", fileHandler.ListFiles)
	files.Get("/:id", fileHandler.GetFile)
	files.Get("/:id/content", fileHandler.GetContent)
	files.Get("/:id/thumbnail", fileHandler.GetThumbnail)
	files.Delete("/:id", fileHandler.DeleteFile)

	// Storage accounting routes
	storage := v1.Group("/storage")
	storage.Get("/me", storageHandler.GetMyUsage)
	storage.Get("/stats", middleware.RequireRole("admin"), storageHandler.GetInstanceStats)
}
