package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"batchline/internal/analytics"
	"batchline/internal/config"
	"batchline/internal/dataprocessing"
	apierrors "batchline/internal/errors"
	"batchline/internal/infrastructure"
	customMiddleware "batchline/internal/middleware"
	"batchline/internal/services"
	"batchline/internal/store"
	handlers "batchline/internal/transport/http"
	ws "batchline/internal/websocket"
	"batchline/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Router        *chi.Mux
	Server        *http.Server

	Store        *store.Store
	WebSocketHub *ws.Hub
	Services     *ServiceContainer

	// location is the zone batch logs are recorded in
	location *time.Location

	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dataset   *services.DatasetService
	Analytics *services.AnalyticsService
	Health    *services.HealthService
}

// NewApplication loads the configuration and the global logger, then wires
// the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component from an explicit configuration and logger
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("commit", contracts.GitCommit))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
		validate:      customMiddleware.NewValidator(),
	}

	if err := a.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices builds the pipeline, the dataset store, the WebSocket
// hub and the services on top of them
func (a *Application) initializeServices() error {
	loc, err := a.Config.Ingest.LoadLocation()
	if err != nil {
		return fmt.Errorf("failed to load ingest location: %w", err)
	}
	a.location = loc

	ingestMetrics, err := infrastructure.NewIngestMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create ingest metrics: %w", err)
	}

	pipeline := dataprocessing.NewPipeline(dataprocessing.PipelineOptions{
		Normalizer: dataprocessing.NormalizerOptions{Location: loc},
		Consolidator: dataprocessing.ConsolidatorOptions{
			GapAlertMinutes:   a.Config.Ingest.GapAlertMinutes,
			TimestampFallback: dataprocessing.TimestampFallback(a.Config.Ingest.TimestampFallback),
		},
		Observer: ingestMetrics,
		Logger:   a.Logger,
	})

	a.Store = store.New()

	hub := ws.NewHub(a.Logger)
	if err := hub.RegisterMetrics(a.OTelProviders.Meter); err != nil {
		return fmt.Errorf("failed to register websocket metrics: %w", err)
	}
	a.Store.Subscribe(hub.DatasetListener())
	a.WebSocketHub = hub

	dataset := services.NewDatasetService(pipeline, a.Store, hub, a.Logger)
	a.Services = &ServiceContainer{
		Dataset: dataset,
		Analytics: services.NewAnalyticsService(dataset, analytics.DegradationOptions{
			MinObservations:    a.Config.Analytics.MinObservations,
			MinPercentIncrease: a.Config.Analytics.MinPercentIncrease,
			MaxAlerts:          a.Config.Analytics.MaxAlerts,
		}, a.Logger),
		Health: services.NewHealthService(contracts.GetVersionInfo(), a.Store, hub, a.Logger),
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// These do not wrap the ResponseWriter, so the WebSocket upgrade is safe
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Handle(config.WebSocketEndpoint, ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Server.AllowedOrigins, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Server.AllowedOrigins,
		}))

		health := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Get(config.HealthEndpoint, health.HealthCheck)
		r.Get(config.HealthEndpoint+"/ready", health.ReadinessCheck)

		r.Route(config.APIBasePath, a.setupAPIRoutes)
	})

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Use(a.errorHandler.Middleware)
	r.Use(middleware.Timeout(a.Config.Server.WriteTimeout))
	r.Use(customMiddleware.ContentTypeValidator(a.errorHandler,
		"application/json", "multipart/form-data", "application/octet-stream"))

	datasetHandler := handlers.NewDatasetHandler(a.Services.Dataset, a.Config.Ingest.MaxUploadBytes, a.Logger, a.errorHandler)
	if a.Config.RateLimit.Enabled {
		limiter := customMiddleware.NewRateLimiter(a.Config.RateLimit.RPS, a.Config.RateLimit.Burst, a.Logger)
		datasetHandler.WithUploadMiddleware(limiter.Handler)
	}
	r.Mount("/datasets", datasetHandler.Routes())

	batchHandler := handlers.NewBatchHandler(a.Services.Dataset, a.location, a.Logger, a.errorHandler)
	r.Mount("/batches", batchHandler.Routes())
	r.Get("/facets", batchHandler.Facets)

	analyticsHandler := handlers.NewAnalyticsHandler(a.Services.Analytics, a.validate, a.Logger, a.errorHandler)
	r.Mount("/analytics", analyticsHandler.Routes())

	r.Mount("/export", handlers.NewExportHandler(a.Services.Dataset, a.location, a.Logger, a.errorHandler).Routes())

	r.Post("/logs", handlers.NewClientLogHandler(a.validate, a.Logger, a.errorHandler).Handle)
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the hub and begins serving on ln. Serve errors other than a
// clean shutdown are reported on the returned channel.
func (a *Application) Start(ctx context.Context, ln net.Listener) <-chan error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			errCh <- err
		}
		close(errCh)
	}()

	return errCh
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	// Hijacked WebSocket connections are not tracked by Shutdown
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves on the configured address until SIGINT or SIGTERM
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	errCh := a.Start(ctx, ln)

	select {
	case <-ctx.Done():
		a.Logger.Info("Received interrupt signal")
	case err := <-errCh:
		if err != nil {
			_ = a.Stop(context.Background())
			return err
		}
	}

	return a.Stop(context.Background())
}
