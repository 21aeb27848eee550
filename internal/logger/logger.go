package logger

import (
	"context"

	"go-freight/internal/config"
	"go-freight/internal/database"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLogger builds the application logger: console output plus an async copy
// of every entry in the "logs" collection.
func NewLogger(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	writer := NewDBLogWriter(mongodb, cfg)
	logger, err := build(cfg, writer)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			writer.Close()
			return nil
		},
	})
	return logger, nil
}

func build(cfg *config.Config, writer *DBLogWriter) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Function names end up in the persisted Caller field.
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return zap.New(NewDBCore(baseLogger.Core(), writer), zap.AddCaller()).
		With(zap.String("app", cfg.AppId)), nil
}
