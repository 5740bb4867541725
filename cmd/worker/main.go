package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/virtual-tryon/internal/bootstrap"
	"github.com/kirillkom/virtual-tryon/internal/config"
	"github.com/kirillkom/virtual-tryon/internal/core/domain"
	"github.com/kirillkom/virtual-tryon/internal/observability/logging"
	"github.com/kirillkom/virtual-tryon/internal/observability/metrics"
)

const serviceName = "tryon-worker"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	if !cfg.EventsEnabled() {
		logger.Error("NATS_URL is not set, nothing to consume")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := bootstrap.NewQueue(cfg, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = queue.SubscribeSessionEvents(ctx, func(handlerCtx context.Context, event domain.SessionEvent) error {
		workerMetrics.ObserveEvent(serviceName, event, time.Now())
		attrs := []any{
			"event_id", event.ID,
			"session_id", event.SessionID,
			"type", event.Type,
			"operation", event.Operation,
			"duration_ms", event.DurationMS,
		}
		if event.GarmentID != 0 {
			attrs = append(attrs, "garment_id", event.GarmentID, "size", event.Size)
		}
		if event.Type == domain.EventOperationFailed {
			logger.WarnContext(handlerCtx, "session_event", append(attrs, "error", event.Error)...)
			return nil
		}
		logger.InfoContext(handlerCtx, "session_event", attrs...)
		return nil
	})
	if err != nil {
		logger.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
