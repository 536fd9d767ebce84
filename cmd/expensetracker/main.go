package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/kafka"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp, (*config.Config).Validate)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize data backend",
			applog.NewFields().WithErrorType(applog.ErrorTypeDatabase).WithError(err).ToSlice()...)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close data backend", applog.FieldError, err)
		}
	}()

	serviceOpts := []services.Option{
		services.WithLogger(logger),
		services.WithQueryOptions(core.QueryOptions{
			DefaultLimit: cfg.DefaultPageLimit,
			MaxLimit:     cfg.MaxPageLimit,
		}),
	}
	if publisher := newPublisher(ctx, cfg, logger); publisher != nil {
		serviceOpts = append(serviceOpts, services.WithPublisher(publisher))
	}
	svc := services.NewExpenseService(result.Store, serviceOpts...)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close event publishers", applog.FieldError, err)
		}
	}()

	resolver, err := security.NewIPResolver(cfg.TrustedProxies...)
	if err != nil {
		logger.Error("Invalid trusted proxies", applog.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		IPResolver:         resolver,
		Logger:             logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker API",
			"port", cfg.Port,
			applog.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// newPublisher connects the configured event brokers. A broker that cannot
// be reached is logged and skipped; the API runs without it.
func newPublisher(ctx context.Context, cfg *config.Config, logger *applog.Logger) services.EventPublisher {
	var publishers []services.EventPublisher

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, expense events will not be published to it", applog.FieldError, err)
		} else {
			publishers = append(publishers, client)
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Warn("Kafka unavailable, expense events will not be published to it", applog.FieldError, err)
		} else {
			publishers = append(publishers, producer)
		}
	}

	multi := services.NewMultiPublisher(publishers...)
	if multi == nil {
		logger.Info("No event broker configured")
		return nil
	}
	logger.Info("Expense event publishing enabled", "publishers", multi.Len())
	return multi
}
