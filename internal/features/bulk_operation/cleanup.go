package bulk_operation

import (
	"context"
	"fmt"
	"time"

	"go-freight/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupScheduler periodically purges finished bulk operations.
type CleanupScheduler struct {
	service   BulkOperationService
	schedule  string
	logger    *zap.Logger
	scheduler *cron.Cron
}

func NewCleanupScheduler(service BulkOperationService, cfg *config.Config, log *zap.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		service:  service,
		schedule: cfg.BulkCleanupSchedule,
		logger:   log,
	}
}

func (c *CleanupScheduler) Start() error {
	c.scheduler = cron.New()
	if _, err := c.scheduler.AddFunc(c.schedule, c.run); err != nil {
		return fmt.Errorf("invalid bulk cleanup schedule %q: %w", c.schedule, err)
	}
	c.scheduler.Start()
	c.logger.Info("bulk cleanup scheduled", zap.String("schedule", c.schedule))
	return nil
}

func (c *CleanupScheduler) Stop() {
	if c.scheduler != nil {
		<-c.scheduler.Stop().Done()
	}
}

func (c *CleanupScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := c.service.PurgeFinished(ctx); err != nil {
		c.logger.Error("bulk cleanup failed", zap.Error(err))
	}
}
