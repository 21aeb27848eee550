package system

import (
	"context"
	"time"

	"go-freight/internal/config"
	"go-freight/internal/database"
	"go-freight/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type SystemController struct {
	DB      *database.MongodbDB
	Config  *config.Config
	started time.Time
}

func NewSystemController(db *database.MongodbDB, cfg *config.Config) *SystemController {
	return &SystemController{
		DB:      db,
		Config:  cfg,
		started: time.Now(),
	}
}

// Health godoc
// @Summary      Service health
// @Description  Reports whether the database answers a ping
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (c *SystemController) Health(ctx *fiber.Ctx) error {
	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "ok", fiber.StatusOK
	if err := c.DB.DB.Client().Ping(pingCtx, readpref.Primary()); err != nil {
		status, code = "database unreachable", fiber.StatusServiceUnavailable
	}

	return ctx.Status(code).JSON(fiber.Map{
		"status":      status,
		"app":         c.Config.AppId,
		"environment": c.Config.Environment,
		"uptime":      time.Since(c.started).Round(time.Second).String(),
	})
}

// GetCurrentUser godoc
// @Summary      Get current user info
// @Description  Get the current user's id and roles from the JWT
// @Tags         system
// @Produce      json
// @Success      200  {object}  utils.UserClaims
// @Router       /api/me [get]
func (c *SystemController) GetCurrentUser(ctx *fiber.Ctx) error {
	claims := middleware.CurrentUser(ctx)
	if claims == nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	return ctx.JSON(fiber.Map{
		"user_id": claims.UserID,
		"roles":   claims.Roles,
	})
}
