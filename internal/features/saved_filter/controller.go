package saved_filter

import (
	"errors"

	"go-freight/internal/features/listing"
	"go-freight/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SavedFilterController struct {
	FilterService SavedFilterService
}

func NewSavedFilterController(filterService SavedFilterService) *SavedFilterController {
	return &SavedFilterController{
		FilterService: filterService,
	}
}

// CreateFilter godoc
// @Summary  Save the current list criteria under a name
// @Tags     filters
// @Accept   json
// @Produce  json
// @Param    filter body SavedFilter true "filter"
// @Success  201 {object} SavedFilter
// @Router   /api/filters [post]
func (c *SavedFilterController) CreateFilter(ctx *fiber.Ctx) error {
	var filter SavedFilter
	if err := ctx.BodyParser(&filter); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	filter.ID = primitive.NilObjectID
	filter.UserID = currentUserID(ctx)
	if err := c.FilterService.CreateFilter(ctx.UserContext(), &filter); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(filter)
}

func (c *SavedFilterController) GetFilter(ctx *fiber.Ctx) error {
	filter, err := c.FilterService.GetFilter(ctx.UserContext(), ctx.Params("id"))
	if err != nil || (!filter.IsPublic && filter.UserID != currentUserID(ctx)) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Filter not found"})
	}
	return ctx.JSON(filter)
}

// GetFilterByName looks a filter up by the name the user gave it.
func (c *SavedFilterController) GetFilterByName(ctx *fiber.Ctx) error {
	filter, err := c.FilterService.GetFilterByName(ctx.UserContext(), currentUserID(ctx), ctx.Params("resource"), ctx.Params("name"))
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": "Filter not found"})
	}
	return ctx.JSON(filter)
}

func (c *SavedFilterController) UpdateFilter(ctx *fiber.Ctx) error {
	objID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid filter id"})
	}

	var filter SavedFilter
	if err := ctx.BodyParser(&filter); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}
	filter.ID = objID

	if err := c.FilterService.UpdateFilter(ctx.UserContext(), &filter, currentUserID(ctx)); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(filter)
}

func (c *SavedFilterController) DeleteFilter(ctx *fiber.Ctx) error {
	if err := c.FilterService.DeleteFilter(ctx.UserContext(), ctx.Params("id"), currentUserID(ctx)); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *SavedFilterController) ListUserFilters(ctx *fiber.Ctx) error {
	resource := ctx.Query("resource")
	if resource == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "resource parameter required"})
	}

	filters, err := c.FilterService.GetUserFilters(ctx.UserContext(), currentUserID(ctx), resource)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(filters)
}

func (c *SavedFilterController) ListPublicFilters(ctx *fiber.Ctx) error {
	resource := ctx.Query("resource")
	if resource == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "resource parameter required"})
	}

	filters, err := c.FilterService.GetPublicFilters(ctx.UserContext(), resource)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(filters)
}

func currentUserID(ctx *fiber.Ctx) string {
	if user := middleware.CurrentUser(ctx); user != nil {
		return user.UserID
	}
	return ""
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNameRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrDuplicateName):
		return fiber.StatusConflict
	case errors.Is(err, ErrNotOwner):
		return fiber.StatusForbidden
	case isNotFound(err):
		return fiber.StatusNotFound
	default:
		return listing.StatusFor(err)
	}
}
