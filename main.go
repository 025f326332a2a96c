package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/hardware-storefront/internal/app/cache"
	"github.com/mrops-br/hardware-storefront/internal/app/service"
	"github.com/mrops-br/hardware-storefront/internal/domain"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/config"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http/handler"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/remote"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/repository/memory"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telem, err := telemetry.New(ctx, &cfg.OTLP)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("hardware-storefront")
	meter := telem.MeterProvider.Meter("hardware-storefront")
	logger := telem.Logger

	logger.Info("Starting hardware storefront")

	var backend domain.Backend
	if cfg.Backend.URL != "" {
		logger.Info("Using remote catalog backend", slog.String("url", cfg.Backend.URL))
		backend = remote.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, tracer, logger)
	} else {
		logger.Info("Using in-memory catalog backend", slog.Int("admin_tokens", len(cfg.Backend.AdminTokens)))
		backend = memory.NewProductRepository(tracer, logger, cfg.Backend.AdminTokens...)
	}

	productCache := cache.New(cache.Options{
		ReadAttempts: cfg.Cache.ReadAttempts,
		RetryDelay:   cfg.Cache.RetryDelay,
		Permanent:    isPermanent,
	}, tracer, meter, logger)
	productCache.Subscribe(cache.ProductsKey(), func(key cache.Key) {
		logger.Debug("Product list will refresh on next read", slog.String("key", key.String()))
	})

	productService := service.NewProductService(backend, productCache, tracer, meter, logger)

	server := http.NewServer(&cfg.Server, http.Handlers{
		Products: handler.NewProductHandler(productService, logger),
		Admin:    handler.NewAdminHandler(productService, logger, cfg.Catalog.WrenchImageURL),
		Account:  handler.NewAccountHandler(productService, logger),
	}, logger, telem.MeterProvider)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
}

// isPermanent reports read errors that retrying cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrUnauthorized)
}
