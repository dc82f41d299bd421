package handlers

import (
	"nutriregistry/internal/middleware"
	"nutriregistry/internal/models"
	"nutriregistry/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products and writer authorizations.
type ProductHandler struct {
	products *services.ProductRegistry
	log      *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *services.ProductRegistry, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		log:      log,
	}
}

// RegisterRoutes registers the product and authorization routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.HandleAddProduct)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Post("/:id/deactivate", h.HandleDeactivateProduct)
	productRoutes.Get("/:id/version", h.HandleGetVersion)

	authRoutes := router.Group("/authorizations")
	authRoutes.Get("/:identity", h.HandleIsAuthorized)
	authRoutes.Post("/:identity", h.HandleAuthorizeUser)
	authRoutes.Delete("/:identity", h.HandleRevokeAuthorization)
}

// HandleAddProduct adds a new product.
func (h *ProductHandler) HandleAddProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	added, err := h.products.AddProduct(c.UserContext(), middleware.Caller(c), in)
	if err != nil {
		return respondError(c, h.log, "Could not add product", err)
	}
	if added {
		c.Status(fiber.StatusCreated)
	}
	return ok(c, added)
}

// HandleUpdateProduct replaces the fields of the product named in the path.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	in.ID = c.Params("id")
	updated, err := h.products.UpdateProduct(c.UserContext(), middleware.Caller(c), in)
	if err != nil {
		return respondError(c, h.log, "Could not update product", err)
	}
	return ok(c, updated)
}

// HandleDeactivateProduct marks a product inactive.
func (h *ProductHandler) HandleDeactivateProduct(c *fiber.Ctx) error {
	deactivated, err := h.products.DeactivateProduct(c.UserContext(), middleware.Caller(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, "Could not deactivate product", err)
	}
	return ok(c, deactivated)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.products.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleGetVersion returns the product version, 0 for unknown products.
func (h *ProductHandler) HandleGetVersion(c *fiber.Ctx) error {
	version, err := h.products.GetVersion(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve product version", err)
	}
	return c.JSON(fiber.Map{"product_id": c.Params("id"), "version": version})
}

// HandleAuthorizeUser grants write access to the identity in the path.
func (h *ProductHandler) HandleAuthorizeUser(c *fiber.Ctx) error {
	granted, err := h.products.AuthorizeUser(c.UserContext(), middleware.Caller(c), models.Identity(c.Params("identity")))
	if err != nil {
		return respondError(c, h.log, "Could not authorize user", err)
	}
	return ok(c, granted)
}

// HandleRevokeAuthorization withdraws write access from the identity in the path.
func (h *ProductHandler) HandleRevokeAuthorization(c *fiber.Ctx) error {
	revoked, err := h.products.RevokeAuthorization(c.UserContext(), middleware.Caller(c), models.Identity(c.Params("identity")))
	if err != nil {
		return respondError(c, h.log, "Could not revoke authorization", err)
	}
	return ok(c, revoked)
}

// HandleIsAuthorized reports whether the identity in the path may write products.
func (h *ProductHandler) HandleIsAuthorized(c *fiber.Ctx) error {
	authorized, err := h.products.IsAuthorized(c.UserContext(), models.Identity(c.Params("identity")))
	if err != nil {
		return respondError(c, h.log, "Could not look up authorization", err)
	}
	return c.JSON(fiber.Map{"identity": c.Params("identity"), "authorized": authorized})
}
