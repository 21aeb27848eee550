package system

import (
	"go-freight/internal/common/api"
	"go-freight/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

type SystemApi struct {
	controller *SystemController
}

func NewSystemApi(controller *SystemController) api.Route {
	return &SystemApi{controller: controller}
}

func (h *SystemApi) Setup(app *fiber.App) {
	app.Get("/health", h.controller.Health)
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/api/me", middleware.AuthMiddleware(h.controller.Config.SkipAuth), h.controller.GetCurrentUser)
}
