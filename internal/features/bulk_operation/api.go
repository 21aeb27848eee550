package bulk_operation

import (
	"go-freight/internal/common/api"
	"go-freight/internal/config"
	"go-freight/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type BulkOperationApi struct {
	BulkController *BulkOperationController
	Config         *config.Config
}

func NewBulkOperationApi(bulkController *BulkOperationController, config *config.Config) api.Route {
	return &BulkOperationApi{
		BulkController: bulkController,
		Config:         config,
	}
}

func (api *BulkOperationApi) Setup(app *fiber.App) {
	group := app.Group("/api/bulk", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Get("/operations", api.BulkController.ListBulkOperations)
	group.Get("/operations/:id", api.BulkController.GetBulkOperation)
	group.Post("/:resource/:action", api.guardDelete(), api.BulkController.RunBulkAction)

	ws := app.Group("/api/ws/bulk", middleware.AuthMiddleware(api.Config.SkipAuth), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/:id", websocket.New(api.BulkController.StreamProgress))
}

// guardDelete restricts the delete action to supervisors.
func (api *BulkOperationApi) guardDelete() fiber.Handler {
	requireSupervisor := middleware.RequireRole(api.Config.SkipAuth, "admin", "supervisor")
	return func(c *fiber.Ctx) error {
		if BulkAction(c.Params("action")) == BulkActionDelete {
			return requireSupervisor(c)
		}
		return c.Next()
	}
}
