package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/config"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http/handler"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Handlers groups the route handlers of the server.
type Handlers struct {
	Products *handler.ProductHandler
	Admin    *handler.AdminHandler
	Account  *handler.AccountHandler
}

// Server represents the HTTP server
type Server struct {
	router        *chi.Mux
	config        *config.ServerConfig
	handlers      Handlers
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	httpServer    *http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.ServerConfig,
	handlers Handlers,
	logger *slog.Logger,
	meterProvider metric.MeterProvider,
) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		config:        cfg,
		handlers:      handlers,
		logger:        logger,
		meterProvider: meterProvider,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.HTTPRouteContext())
	s.router.Use(middleware.Caller())

	meter := s.meterProvider.Meter("hardware-storefront")
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))
	s.router.Use(middleware.DurationMillisecondsMiddleware(meter))
}

func (s *Server) setupRoutes() {
	s.router.Route("/shop", func(r chi.Router) {
		r.Get("/", s.handlers.Products.ListProducts)
		r.Get("/{id}", s.handlers.Products.GetProduct)
	})
	s.router.Get("/gallery", s.handlers.Products.Gallery)

	s.router.Route("/admin/products", func(r chi.Router) {
		r.Use(s.handlers.Admin.RequireAdmin)
		r.Post("/", s.handlers.Admin.CreateProduct)
		r.Put("/{id}", s.handlers.Admin.UpdateProduct)
		r.Delete("/{id}", s.handlers.Admin.DeleteProduct)
		r.Post("/seed/open-end-wrenches", s.handlers.Admin.SeedOpenEndWrenches)
	})

	s.router.Get("/me", s.handlers.Account.Me)
	s.router.Put("/me/profile", s.handlers.Account.SaveProfile)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Instruments are exported to the default registry by the otel
	// Prometheus reader.
	s.router.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// Handler returns the router wrapped with otelhttp for request spans and
// the standard http.server metrics.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http-server",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithMeterProvider(s.meterProvider),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("http.route", middleware.RoutePattern(r)),
			}
		}),
	)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.httpServer.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
