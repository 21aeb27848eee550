package saved_filter

import (
	"go-freight/internal/common/api"
	"go-freight/internal/config"
	"go-freight/internal/features/listing"
	"go-freight/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SavedFilterApi struct {
	controller *SavedFilterController
	skipAuth   bool
}

func NewSavedFilterApi(controller *SavedFilterController, cfg *config.Config) api.Route {
	return &SavedFilterApi{controller: controller, skipAuth: cfg.SkipAuth}
}

func (h *SavedFilterApi) Setup(app *fiber.App) {
	filters := app.Group("/api/filters", middleware.AuthMiddleware(h.skipAuth))
	filters.Get("/", h.controller.ListUserFilters)
	filters.Post("/", h.controller.CreateFilter)
	filters.Get("/public", h.controller.ListPublicFilters)
	filters.Get("/by-name/:resource/:name", knownResource, h.controller.GetFilterByName)

	one := filters.Group("/:id")
	one.Get("/", h.controller.GetFilter)
	one.Put("/", h.controller.UpdateFilter)
	one.Delete("/", h.controller.DeleteFilter)
}

// knownResource rejects lookups for resources the listing registry lacks
// before the filter store is queried.
func knownResource(c *fiber.Ctx) error {
	if _, err := listing.LookupResource(c.Params("resource")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":      err.Error(),
			"request_id": middleware.RequestID(c),
		})
	}
	return c.Next()
}
