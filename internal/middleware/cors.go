package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSMiddleware allows the given comma separated origins. The bulk operation
// and request id headers are exposed so browser clients can follow a print
// download back to its operation.
func CORSMiddleware(origins string) fiber.Handler {
	origins = strings.TrimSpace(origins)
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization,X-Request-Id",
		ExposeHeaders:    "X-Request-Id,X-Bulk-Operation-Id,Content-Disposition",
		AllowCredentials: origins != "*",
	})
}
