package middleware

import (
	"context"

	common_models "go-freight/internal/common/models"

	"github.com/gofiber/fiber/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const HeaderRequestID = "X-Request-Id"

// RequestIDMiddleware propagates the caller's X-Request-Id, or mints one, and
// stores it on both the fiber locals and the user context.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = gonanoid.Must(12)
		}
		c.Locals(string(common_models.RequestIDKey), id)
		c.SetUserContext(context.WithValue(c.UserContext(), common_models.RequestIDKey, id))
		c.Set(HeaderRequestID, id)
		return c.Next()
	}
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(string(common_models.RequestIDKey)).(string)
	return id
}
