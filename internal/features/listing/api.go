package listing

import (
	"go-freight/internal/common/api"
	"go-freight/internal/config"
	"go-freight/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ListingApi struct {
	controller *ListingController
	config     *config.Config
}

func NewListingApi(controller *ListingController, config *config.Config) api.Route {
	return &ListingApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers the list screen endpoints
func (h *ListingApi) Setup(app *fiber.App) {
	lists := app.Group("/api/lists", middleware.AuthMiddleware(h.config.SkipAuth))

	lists.Get("/", h.controller.ListResources)
	lists.Get("/:resource", h.controller.Search)
	lists.Get("/:resource/ids", h.controller.EnumerateIDs)
	lists.Post("/:resource/resolve", h.controller.Resolve)
	lists.Get("/:resource/:id", h.controller.Get)
}
