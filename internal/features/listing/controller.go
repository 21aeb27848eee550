package listing

import (
	"errors"
	"net/url"

	"go-freight/internal/common/models"
	"go-freight/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ListingController struct {
	Service ListingService
}

func NewListingController(service ListingService) *ListingController {
	return &ListingController{Service: service}
}

// ListResources godoc
// @Summary  List the searchable resources and their filters
// @Tags     listing
// @Produce  json
// @Success  200 {array} ResourceSchema
// @Router   /api/lists [get]
func (ctrl *ListingController) ListResources(c *fiber.Ctx) error {
	return c.JSON(Resources())
}

// Search godoc
// @Summary  One page of records matching the filters
// @Tags     listing
// @Produce  json
// @Param    resource path  string true  "consignments | trip_sheets | parties"
// @Param    search   query string false "free text"
// @Param    from     query string false "YYYY-MM-DD, inclusive"
// @Param    to       query string false "YYYY-MM-DD, inclusive"
// @Param    page     query int    false "1-based page"
// @Param    limit    query int    false "page size"
// @Success  200 {object} map[string]interface{}
// @Router   /api/lists/{resource} [get]
func (ctrl *ListingController) Search(c *fiber.Ctx) error {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := ctrl.Service.Search(c.UserContext(), c.Params("resource"), criteria,
		c.QueryInt(models.ParamPage, 1), c.QueryInt(models.ParamLimit, DefaultLimit))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(res)
}

// EnumerateIDs godoc
// @Summary  Every id matching the filters, unpaged
// @Tags     listing
// @Produce  json
// @Param    resource path string true "resource name"
// @Success  200 {object} map[string]interface{}
// @Failure  422 {object} map[string]string
// @Router   /api/lists/{resource}/ids [get]
func (ctrl *ListingController) EnumerateIDs(c *fiber.Ctx) error {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ids, err := ctrl.Service.EnumerateIDs(c.UserContext(), c.Params("resource"), criteria)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"ids": ids, "total": len(ids)})
}

// Resolve godoc
// @Summary  Full records for an id list or a filter minus exclusions
// @Tags     listing
// @Accept   json
// @Produce  json
// @Param    resource path string true "resource name"
// @Param    request  body models.ResolveRequest true "ids, or filters with exclude_ids"
// @Success  200 {object} map[string]interface{}
// @Router   /api/lists/{resource}/resolve [post]
func (ctrl *ListingController) Resolve(c *fiber.Ctx) error {
	var req models.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	records, err := ctrl.Service.Resolve(c.UserContext(), c.Params("resource"), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"data": records, "total": len(records)})
}

// Get godoc
// @Summary  One record
// @Tags     listing
// @Produce  json
// @Param    resource path string true "resource name"
// @Param    id       path string true "record id"
// @Success  200 {object} map[string]interface{}
// @Failure  404 {object} map[string]string
// @Router   /api/lists/{resource}/{id} [get]
func (ctrl *ListingController) Get(c *fiber.Ctx) error {
	rec, err := ctrl.Service.Get(c.UserContext(), c.Params("resource"), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(rec)
}

func criteriaFromQuery(c *fiber.Ctx) (models.FilterCriteria, error) {
	params := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		params.Add(string(key), string(value))
	})
	return models.ParseFilterCriteria(params)
}

// StatusFor maps listing errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownResource), errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrUnknownFilter),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, models.ErrInvalidDateRange),
		errors.Is(err, models.ErrAmbiguousResolve),
		errors.Is(err, models.ErrEmptyResolve):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrTooManyIDs), errors.Is(err, ErrTooManyItems):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(fiber.Map{
		"error":      err.Error(),
		"request_id": middleware.RequestID(c),
	})
}
