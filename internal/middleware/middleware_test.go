package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"go-freight/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(skipAuth bool, roles ...string) *fiber.App {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	handlers := []fiber.Handler{AuthMiddleware(skipAuth)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(skipAuth, roles...))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.SendString(CurrentUser(c).UserID)
	})
	app.Get("/", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetSecret("mw-secret")
	defer utils.SetSecret("secret")
	token, _ := utils.GenerateToken("clerk-7", []string{"clerk"}, time.Hour)

	tests := []struct {
		name   string
		header string
		skip   bool
		roles  []string
		want   int
	}{
		{"missing header", "", false, nil, fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", false, nil, fiber.StatusUnauthorized},
		{"garbage token", "Bearer abc", false, nil, fiber.StatusUnauthorized},
		{"valid token", "Bearer " + token, false, nil, fiber.StatusOK},
		{"missing role", "Bearer " + token, false, []string{"admin"}, fiber.StatusForbidden},
		{"matching role", "Bearer " + token, false, []string{"admin", "clerk"}, fiber.StatusOK},
		{"skip auth", "", true, []string{"admin"}, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tt.skip, tt.roles...)
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestAuthMiddlewareQueryTokenOnlyForWebsocket(t *testing.T) {
	utils.SetSecret("mw-secret")
	defer utils.SetSecret("secret")
	token, _ := utils.GenerateToken("clerk-7", []string{"clerk"}, time.Hour)
	app := newTestApp(false)

	req := httptest.NewRequest("GET", "/?token="+token, nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected status %d for plain request, got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/?token="+token, nil)
	req.Header.Set(fiber.HeaderUpgrade, "websocket")
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status %d for upgrade request, got %d", fiber.StatusOK, resp.StatusCode)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	app := newTestApp(true)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderRequestID, "given-id")
	resp, _ := app.Test(req)
	if got := resp.Header.Get(HeaderRequestID); got != "given-id" {
		t.Errorf("Expected propagated id, got %q", got)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/", nil))
	if got := resp.Header.Get(HeaderRequestID); len(got) != 12 {
		t.Errorf("Expected a minted 12 character id, got %q", got)
	}
}
