package handlers

import (
	"nutriregistry/internal/middleware"
	"nutriregistry/internal/models"
	"nutriregistry/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProfileHandler handles HTTP requests for user profiles. Every mutation acts
// on the caller's own profile.
type ProfileHandler struct {
	profiles *services.UserProfileRegistry
	log      *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *services.UserProfileRegistry, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		log:      log,
	}
}

// RegisterRoutes registers the profile routes.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	profileRoutes := router.Group("/profiles")
	profileRoutes.Post("/", h.HandleCreateProfile)
	profileRoutes.Put("/", h.HandleUpdateProfile)
	profileRoutes.Delete("/", h.HandleDeleteProfile)
	profileRoutes.Get("/me", h.HandleGetMyProfile)
	profileRoutes.Get("/:identity", h.HandleGetProfile)
	profileRoutes.Get("/:identity/exists", h.HandleHasProfile)
}

// HandleCreateProfile creates the caller's profile.
func (h *ProfileHandler) HandleCreateProfile(c *fiber.Ctx) error {
	var prefs models.Preferences
	if err := c.BodyParser(&prefs); err != nil {
		return badBody(c, err)
	}
	created, err := h.profiles.CreateProfile(c.UserContext(), middleware.Caller(c), prefs)
	if err != nil {
		return respondError(c, h.log, "Could not create profile", err)
	}
	if created {
		c.Status(fiber.StatusCreated)
	}
	return ok(c, created)
}

// HandleUpdateProfile replaces the caller's preferences.
func (h *ProfileHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var prefs models.Preferences
	if err := c.BodyParser(&prefs); err != nil {
		return badBody(c, err)
	}
	updated, err := h.profiles.UpdateProfile(c.UserContext(), middleware.Caller(c), prefs)
	if err != nil {
		return respondError(c, h.log, "Could not update profile", err)
	}
	return ok(c, updated)
}

// HandleDeleteProfile deactivates the caller's profile.
func (h *ProfileHandler) HandleDeleteProfile(c *fiber.Ctx) error {
	deleted, err := h.profiles.DeleteProfile(c.UserContext(), middleware.Caller(c))
	if err != nil {
		return respondError(c, h.log, "Could not delete profile", err)
	}
	return ok(c, deleted)
}

// HandleGetMyProfile returns the caller's own profile.
func (h *ProfileHandler) HandleGetMyProfile(c *fiber.Ctx) error {
	profile, err := h.profiles.GetMyProfile(c.UserContext(), middleware.Caller(c))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve profile", err)
	}
	return c.JSON(profile)
}

// HandleGetProfile returns the profile of any identity, deleted ones included.
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	profile, err := h.profiles.GetProfile(c.UserContext(), models.Identity(c.Params("identity")))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve profile", err)
	}
	return c.JSON(profile)
}

// HandleHasProfile reports whether the identity ever created a profile.
func (h *ProfileHandler) HandleHasProfile(c *fiber.Ctx) error {
	exists, err := h.profiles.HasProfile(c.UserContext(), models.Identity(c.Params("identity")))
	if err != nil {
		return respondError(c, h.log, "Could not look up profile", err)
	}
	return c.JSON(fiber.Map{"identity": c.Params("identity"), "exists": exists})
}
