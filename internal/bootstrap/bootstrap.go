package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/virtual-tryon/internal/config"
	"github.com/kirillkom/virtual-tryon/internal/core/ports"
	"github.com/kirillkom/virtual-tryon/internal/core/usecase"
	"github.com/kirillkom/virtual-tryon/internal/infrastructure/catalog"
	"github.com/kirillkom/virtual-tryon/internal/infrastructure/queue/nats"
	"github.com/kirillkom/virtual-tryon/internal/infrastructure/resilience"
	"github.com/kirillkom/virtual-tryon/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/virtual-tryon/internal/infrastructure/tryonapi"
	"github.com/kirillkom/virtual-tryon/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Session ports.TryOnSession
	Catalog *catalog.Catalog
	Results *localfs.Storage
	Metrics *metrics.HTTPServerMetrics

	closeFn func()
}

type Options struct {
	Logger *slog.Logger
	// Service labels the metrics registry. Defaults to "tryon-api".
	Service string
	// HTTPTimeout, when positive, replaces the configured per-request
	// backend timeout.
	HTTPTimeout time.Duration
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	service := opts.Service
	if service == "" {
		service = "tryon-api"
	}

	garments, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	results, err := localfs.New(cfg.ResultStoragePath)
	if err != nil {
		return nil, fmt.Errorf("init result storage: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	sessionMetrics := httpMetrics.Session()

	executor := resilience.NewExecutor(
		resilience.SingleAttemptConfig(cfg.TryOnBreakerEnabled),
		resilience.WithLogger(logger),
		resilience.WithStateListener(func(operation string, _, to gobreaker.State) {
			sessionMetrics.SetBreakerState(operation, to.String())
		}),
	)
	timeout := cfg.TryOnHTTPTimeout()
	if opts.HTTPTimeout > 0 {
		timeout = opts.HTTPTimeout
	}
	backend := tryonapi.New(cfg.TryOnAPIBaseURL, tryonapi.Options{
		Timeout:  timeout,
		Executor: executor,
	})

	sessionOpts := usecase.SessionOptions{
		Observer: sessionMetrics,
		Logger:   logger,
	}
	closeFn := func() {}
	if cfg.EventsEnabled() {
		queue, err := NewQueue(cfg, logger)
		if err != nil {
			return nil, err
		}
		sessionOpts.Events = queue
		closeFn = queue.Close
		logger.InfoContext(ctx, "session_events_enabled", "subject", cfg.NATSSubject)
	}

	controller := usecase.NewSessionController(backend, garments, sessionOpts)

	return &App{
		Config:  cfg,
		Session: controller,
		Catalog: garments,
		Results: results,
		Metrics: httpMetrics,
		closeFn: closeFn,
	}, nil
}

// NewQueue connects the session event queue. Publishes go through their own
// executor with the default retry policy.
func NewQueue(cfg config.Config, logger *slog.Logger) (*nats.Queue, error) {
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig(), resilience.WithLogger(logger)),
	})
	if err != nil {
		return nil, fmt.Errorf("init session event queue: %w", err)
	}
	return queue, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
