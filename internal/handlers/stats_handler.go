package handlers

import (
	"nutriregistry/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatsHandler serves the aggregate counters of all three registries.
type StatsHandler struct {
	products *services.ProductRegistry
	profiles *services.UserProfileRegistry
	scans    *services.ScanHistoryRegistry
	log      *zap.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(products *services.ProductRegistry, profiles *services.UserProfileRegistry, scans *services.ScanHistoryRegistry, log *zap.Logger) *StatsHandler {
	return &StatsHandler{
		products: products,
		profiles: profiles,
		scans:    scans,
		log:      log,
	}
}

// RegisterRoutes registers GET /stats.
func (h *StatsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/stats", h.HandleStats)
}

// HandleStats returns the registry-wide counters.
func (h *StatsHandler) HandleStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	totalProducts, err := h.products.TotalProducts(ctx)
	if err != nil {
		return respondError(c, h.log, "Could not read stats", err)
	}
	authorized, err := h.products.AuthorizedCount(ctx)
	if err != nil {
		return respondError(c, h.log, "Could not read stats", err)
	}
	totalUsers, err := h.profiles.TotalUsers(ctx)
	if err != nil {
		return respondError(c, h.log, "Could not read stats", err)
	}
	totalScans, err := h.scans.TotalScans(ctx)
	if err != nil {
		return respondError(c, h.log, "Could not read stats", err)
	}

	return c.JSON(fiber.Map{
		"owner":            h.products.Owner(),
		"total_products":   totalProducts,
		"authorized_count": authorized,
		"total_users":      totalUsers,
		"total_scans":      totalScans,
	})
}
