package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "go-freight/docs" // Import swagger docs
	common_api "go-freight/internal/common/api"
	"go-freight/internal/config"
	"go-freight/internal/database"
	"go-freight/internal/features/bulk_operation"
	"go-freight/internal/features/listing"
	"go-freight/internal/features/saved_filter"
	"go-freight/internal/features/system"
	"go-freight/internal/logger"
	"go-freight/internal/middleware"
	"go-freight/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.Error("request failed",
					zap.String(logger.FieldRequestID, middleware.RequestID(c)),
					zap.String("path", c.Path()),
					zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error":      err.Error(),
				"request_id": middleware.RequestID(c),
			})
		},
	})

	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, log *zap.Logger) {
	for _, route := range routes {
		log.Debug("registering routes", zap.String("api", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
	log.Info("routes registered", zap.Int("count", len(routes)))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, app *fiber.App, cfg *config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				log.Info("listening", zap.String("addr", port), zap.Bool("skip_auth", cfg.SkipAuth))
				if err := app.Listen(port); err != nil {
					log.Error("server failed", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(
	lc fx.Lifecycle,
	listingRepo listing.ListingRepository,
	filterRepo saved_filter.SavedFilterRepository,
	bulkRepo bulk_operation.BulkOperationRepository,
	log *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := listingRepo.EnsureIndexes(ctx); err != nil {
					log.Warn("failed to ensure listing indexes", zap.Error(err))
				}
				if err := filterRepo.EnsureIndexes(ctx); err != nil {
					log.Warn("failed to ensure saved filter indexes", zap.Error(err))
				}
				if err := bulkRepo.EnsureIndexes(ctx); err != nil {
					log.Warn("failed to ensure bulk operation indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// StartCleanup runs the bulk operation retention job for the app's lifetime.
func StartCleanup(lc fx.Lifecycle, scheduler *bulk_operation.CleanupScheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return scheduler.Start()
		},
		OnStop: func(context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

// @title           Freight Back Office API
// @version         1.0
// @description     Filtered record lists and bulk actions over consignment notes, trip sheets and parties.

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			listing.NewListingRepository,
			bulk_operation.NewBulkOperationRepository,
			saved_filter.NewSavedFilterRepository,

			// Initialize Service
			listing.NewListingService,
			bulk_operation.NewProgressHub,
			bulk_operation.NewBulkOperationService,
			bulk_operation.NewCleanupScheduler,
			saved_filter.NewSavedFilterService,

			// Initialize Controller
			listing.NewListingController,
			bulk_operation.NewBulkOperationController,
			saved_filter.NewSavedFilterController,
			system.NewSystemController,

			// Initialize API Routes
			AsRoute(listing.NewListingApi),
			AsRoute(bulk_operation.NewBulkOperationApi),
			AsRoute(saved_filter.NewSavedFilterApi),
			AsRoute(system.NewSystemApi),
		),
		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			InitializeIndexes,
			StartCleanup,
			StartServer,
		),
	)

	app.Run()
}
