package handlers

import (
	"nutriregistry/internal/middleware"
	"nutriregistry/internal/models"
	"nutriregistry/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ScanHandler handles HTTP requests for the scan history.
type ScanHandler struct {
	scans *services.ScanHistoryRegistry
	log   *zap.Logger
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scans *services.ScanHistoryRegistry, log *zap.Logger) *ScanHandler {
	return &ScanHandler{
		scans: scans,
		log:   log,
	}
}

// RegisterRoutes registers the scan routes.
func (h *ScanHandler) RegisterRoutes(router fiber.Router) {
	scanRoutes := router.Group("/scans")
	scanRoutes.Post("/", h.HandleRecordScan)
	scanRoutes.Post("/:product_id/favorite", h.HandleToggleFavorite)
	scanRoutes.Get("/:identity", h.HandleListScans)
	scanRoutes.Get("/:identity/stats", h.HandleStats)
	scanRoutes.Get("/:identity/products/:product_id", h.HandleGetScan)
}

// HandleRecordScan records a scan for the caller.
func (h *ScanHandler) HandleRecordScan(c *fiber.Ctx) error {
	var in services.ScanInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	recorded, err := h.scans.RecordScan(c.UserContext(), middleware.Caller(c), in)
	if err != nil {
		return respondError(c, h.log, "Could not record scan", err)
	}
	if recorded {
		c.Status(fiber.StatusCreated)
	}
	return ok(c, recorded)
}

// HandleToggleFavorite flips the favorite flag of one of the caller's scans.
func (h *ScanHandler) HandleToggleFavorite(c *fiber.Ctx) error {
	toggled, err := h.scans.ToggleFavorite(c.UserContext(), middleware.Caller(c), c.Params("product_id"))
	if err != nil {
		return respondError(c, h.log, "Could not toggle favorite", err)
	}
	return ok(c, toggled)
}

// HandleListScans lists the scans of an identity, or only its favorites with
// ?favorites=true.
func (h *ScanHandler) HandleListScans(c *fiber.Ctx) error {
	identity := models.Identity(c.Params("identity"))

	var (
		scans []models.Scan
		err   error
	)
	if c.QueryBool("favorites") {
		scans, err = h.scans.ListFavorites(c.UserContext(), identity)
	} else {
		scans, err = h.scans.ListScans(c.UserContext(), identity)
	}
	if err != nil {
		return respondError(c, h.log, "Could not list scans", err)
	}
	return c.JSON(scans)
}

// HandleGetScan returns one identity's scan of one product.
func (h *ScanHandler) HandleGetScan(c *fiber.Ctx) error {
	scan, err := h.scans.GetScan(c.UserContext(), models.Identity(c.Params("identity")), c.Params("product_id"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve scan", err)
	}
	return c.JSON(scan)
}

// HandleStats returns the scan count and last scanned product of an identity.
func (h *ScanHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.scans.Stats(c.UserContext(), models.Identity(c.Params("identity")))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve scan stats", err)
	}
	return c.JSON(stats)
}
