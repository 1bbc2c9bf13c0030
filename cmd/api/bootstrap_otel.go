package main

import (
	"context"

	config "github.com/NordCoder/FlightAlert/internal/config/api"
	"github.com/NordCoder/FlightAlert/internal/obs"
	"go.uber.org/zap"
)

// initOTel never fails the boot: a broken collector only costs traces.
func initOTel(ctx context.Context, cfg *config.Config, logger *zap.Logger) obs.ShutdownFunc {
	shutdown, err := obs.StartTracing(ctx, cfg.OTEL.AsTracingConfig(cfg.App))
	if err != nil {
		logger.Warn("otel init", zap.Error(err))
	}
	return shutdown
}
