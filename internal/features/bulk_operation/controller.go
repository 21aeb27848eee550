package bulk_operation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-freight/internal/features/listing"
	"go-freight/internal/middleware"
	"go-freight/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HeaderOperationID carries the bulk operation id on print responses.
const HeaderOperationID = "X-Bulk-Operation-Id"

type BulkOperationController struct {
	BulkService BulkOperationService
}

func NewBulkOperationController(bulkService BulkOperationService) *BulkOperationController {
	return &BulkOperationController{
		BulkService: bulkService,
	}
}

// RunBulkAction godoc
// @Summary  Apply print, exclude or delete to a resolved selection
// @Tags     bulk
// @Accept   json
// @Produce  json
// @Param    resource path  string      true  "resource name"
// @Param    action   path  string      true  "print | exclude | delete"
// @Param    async    query bool        false "exclude/delete only: return 202 and run in background"
// @Param    request  body  BulkRequest true  "selection"
// @Success  200 {object} BulkOperation
// @Failure  409 {object} BulkOperation
// @Router   /api/bulk/{resource}/{action} [post]
func (c *BulkOperationController) RunBulkAction(ctx *fiber.Ctx) error {
	var req BulkRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	user := middleware.CurrentUser(ctx)
	if user == nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	action := BulkAction(ctx.Params("action"))
	op, err := c.BulkService.Prepare(ctx.UserContext(), ctx.Params("resource"), action, req, user.UserID, middleware.RequestID(ctx))
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	if ctx.QueryBool("async") && action != BulkActionPrint {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			_, _ = c.BulkService.Execute(bgCtx, op)
		}()
		return ctx.Status(fiber.StatusAccepted).JSON(op)
	}

	manifest, err := c.BulkService.Execute(ctx.UserContext(), op)
	if err != nil {
		if errors.Is(err, ErrCountMismatch) {
			return ctx.Status(fiber.StatusConflict).JSON(op)
		}
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error(), "operation": op})
	}

	if manifest != nil {
		ctx.Set(HeaderOperationID, op.ID.Hex())
		ctx.Set(fiber.HeaderContentType, xlsxContentType)
		ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", manifest.FileName))
		return ctx.Send(manifest.Content)
	}
	return ctx.JSON(op)
}

func (c *BulkOperationController) GetBulkOperation(ctx *fiber.Ctx) error {
	op, err := c.BulkService.GetOperation(ctx.UserContext(), ctx.Params("id"), userID(ctx))
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": "Operation not found"})
	}
	return ctx.JSON(op)
}

func (c *BulkOperationController) ListBulkOperations(ctx *fiber.Ctx) error {
	ops, err := c.BulkService.ListOperations(ctx.UserContext(), OperationQuery{
		UserID:   userID(ctx),
		Resource: ctx.Query("resource"),
		Status:   BulkOperationStatus(ctx.Query("status")),
		Limit:    ctx.QueryInt("limit"),
	})
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(ops)
}

// StreamProgress pushes operation snapshots over a websocket until the
// operation is finished.
func (c *BulkOperationController) StreamProgress(conn *websocket.Conn) {
	id := conn.Params("id")
	updates, unsubscribe := c.BulkService.Subscribe(id)
	defer unsubscribe()

	owner := ""
	if claims, ok := conn.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		owner = claims.UserID
	}
	op, err := c.BulkService.GetOperation(context.Background(), id, owner)
	if errors.Is(err, ErrForbidden) {
		_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
		return
	}
	if err != nil {
		_ = conn.WriteJSON(fiber.Map{"error": "Operation not found"})
		return
	}
	if err := conn.WriteJSON(op); err != nil || op.Terminal() {
		return
	}

	for snapshot := range updates {
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
		if snapshot.Terminal() {
			return
		}
	}
}

func userID(ctx *fiber.Ctx) string {
	if user := middleware.CurrentUser(ctx); user != nil {
		return user.UserID
	}
	return ""
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAction):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrCountMismatch):
		return fiber.StatusConflict
	case errors.Is(err, mongo.ErrNoDocuments):
		return fiber.StatusNotFound
	default:
		return listing.StatusFor(err)
	}
}
