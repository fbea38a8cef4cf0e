package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kerimovok/go-pkg-utils/httpx"

	"chat-files-api/internal/middleware"
	"chat-files-api/internal/quota"
	"chat-files-api/internal/services"
)

// StorageHandler serves quota usage and instance storage statistics
type StorageHandler struct {
	ledger *quota.Ledger
	stats  *services.StatsService
}

// NewStorageHandler creates a new storage handler
func NewStorageHandler(ledger *quota.Ledger, stats *services.StatsService) *StorageHandler {
	return &StorageHandler{ledger: ledger, stats: stats}
}

// GetMyUsage returns the caller's quota snapshot
func (h *StorageHandler) GetMyUsage(c *fiber.Ctx) error {
	usage, err := h.ledger.UsageFor(c.UserContext(), middleware.CallerID(c))
	if err != nil {
		response := httpx.InternalServerError("Failed to compute storage usage", err)
		return httpx.SendResponse(c, response)
	}

	response := httpx.OK("Storage usage retrieved successfully", usage)
	return httpx.SendResponse(c, response)
}

// GetInstanceStats returns the instance-wide storage report
func (h *StorageHandler) GetInstanceStats(c *fiber.Ctx) error {
	report, err := h.stats.Instance(c.UserContext())
	if err != nil {
		response := httpx.InternalServerError("Failed to compute storage statistics", err)
		return httpx.SendResponse(c, response)
	}

	response := httpx.OK("Storage statistics retrieved successfully", report)
	return httpx.SendResponse(c, response)
}
