package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/anomaly"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/config"
	apierrors "github.com/toxidity-18/Marketing-Data-Engine/internal/errors"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/infrastructure"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/insights"
	customMiddleware "github.com/toxidity-18/Marketing-Data-Engine/internal/middleware"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/quality"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/store"
	handlers "github.com/toxidity-18/Marketing-Data-Engine/internal/transport/http"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/validation"
	ws "github.com/toxidity-18/Marketing-Data-Engine/internal/websocket"
)

const (
	// maxFilesPerUpload bounds the multipart body of one upload request in files.
	maxFilesPerUpload = 10
	// jsonBodyLimit bounds JSON request bodies.
	jsonBodyLimit = 1 << 20

	runtimeSampleInterval = 15 * time.Second
)

// BuildTime is set at compile time with -ldflags "-X .../internal/app.BuildTime=..."
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.PipelineMetrics
	Registry       *schema.Registry
	Store          *store.Memory
	WebSocketHub   *ws.Hub
	DatasetService *services.DatasetService
	HealthService  *services.HealthService
	ErrorHandler   *apierrors.ErrorHandler

	runtime *infrastructure.RuntimeCollector
}

// NewApplication loads the configuration, initializes logging and wires the application
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

// New wires the application from an explicit configuration and logger
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry, config.AppVersion), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if otelProviders.Meter != nil {
		metrics, err := infrastructure.CreatePipelineMetrics(otelProviders.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
		app.Metrics = metrics
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	cfg := a.Config

	registry := schema.Default()
	if cfg.Pipeline.SchemaFile != "" {
		loaded, err := schema.LoadRegistry(cfg.Pipeline.SchemaFile)
		if err != nil {
			return apierrors.NewConfigError("invalid schema file", err).
				WithContext("path", cfg.Pipeline.SchemaFile)
		}
		registry = loaded
		a.Logger.Info("Schema registry extended",
			slog.String("path", cfg.Pipeline.SchemaFile),
			slog.String("registry_version", registry.Version()))
	}
	a.Registry = registry

	a.Store = store.NewMemory(cfg.Pipeline.MaxPerPage)

	hub := ws.NewHub(ws.HubConfig{
		PingPeriod: cfg.WebSocket.PingPeriod,
		PongWait:   cfg.WebSocket.PongWait,
		Metrics:    a.Metrics,
	}, a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	engine := insights.New(insights.Config{
		Mode:     insights.Mode(cfg.Insights.Mode),
		Endpoint: cfg.Insights.Endpoint,
		APIKey:   cfg.Insights.APIKey,
		Timeout:  cfg.Insights.Timeout,
	}, a.Logger)

	qcfg := qualityConfig(cfg.Quality)
	acfg := anomalyConfig(cfg.Anomaly)
	pcfg := performanceConfig(cfg.Performance)

	a.DatasetService = services.NewDatasetService(services.DatasetDeps{
		Store:       a.Store,
		Registry:    registry,
		Validator:   validation.NewFileValidator(a.Logger, cfg.Pipeline.MaxUploadBytes, cfg.Pipeline.AllowedExtensions),
		Quality:     &qcfg,
		Anomaly:     &acfg,
		Performance: &pcfg,
		Insights:    engine,
		Hub:         hub,
		Metrics:     a.Metrics,
		Logger:      a.Logger,
		Config: services.DatasetConfig{
			DefaultCurrency:    cfg.Pipeline.DefaultCurrency,
			DetectionThreshold: cfg.Pipeline.DetectionThreshold,
			Workers:            cfg.Pipeline.Workers,
			SampleDays:         cfg.Pipeline.SampleDays,
		},
	})

	a.HealthService = services.NewHealthService(services.HealthDeps{
		Version:         config.AppVersion,
		BuildTime:       BuildTime,
		RegistryVersion: registry.Version(),
		Store:           a.Store,
		Hub:             hub,
		InsightsMode:    engine.Mode(),
		Logger:          a.Logger,
	})

	if a.OTelProviders.Meter != nil {
		collector, err := infrastructure.NewRuntimeCollector(a.OTelProviders.Meter, runtimeSampleInterval, a.storeSnapshot)
		if err != nil {
			return fmt.Errorf("failed to create runtime collector: %w", err)
		}
		a.runtime = collector
	}

	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, cfg.Logging.Development, handlers.DomainMappings()...)
	return nil
}

func (a *Application) storeSnapshot() (int, int) {
	stats := a.Store.Stats()
	return stats.Datasets, stats.TotalRows
}

func qualityConfig(c config.QualityConfig) quality.Config {
	out := quality.DefaultConfig()
	if c.RecencyWindow > 0 {
		out.RecencyWindow = c.RecencyWindow
	}
	if c.MaxStaleness > 0 {
		out.MaxStaleness = c.MaxStaleness
	}
	return out
}

func anomalyConfig(c config.AnomalyConfig) anomaly.Config {
	out := anomaly.DefaultConfig()
	if c.ZThreshold > 0 {
		out.ZThreshold = c.ZThreshold
		// Keep the severity tiers above the flagging threshold.
		out.ZHigh = max(out.ZHigh, c.ZThreshold+1)
		out.ZCritical = max(out.ZCritical, c.ZThreshold+2)
	}
	if c.IQRMultiplier > 0 {
		out.IQRMultiplier = c.IQRMultiplier
	}
	if c.MinSampleSize > 0 {
		out.MinSampleSize = c.MinSampleSize
	}
	return out
}

func performanceConfig(c config.PerformanceConfig) anomaly.PerformanceConfig {
	out := anomaly.DefaultPerformanceConfig()
	if c.CPAMultiple > 0 {
		out.CPAMultiple = c.CPAMultiple
	}
	if c.CTRFloor > 0 {
		out.CTRFloor = c.CTRFloor
	}
	if c.MinImpressions > 0 {
		out.MinImpressions = c.MinImpressions
	}
	if c.ROASFloor > 0 {
		out.ROASFloor = c.ROASFloor
	}
	return out
}

// setupRouter configures the router and its middleware chain
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// These do not wrap the ResponseWriter, so the websocket upgrade can hijack it.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Get("/ws", ws.NewHandler(a.WebSocketHub, ws.UpgradeConfig{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
		AllowAllOrigins: a.Config.Logging.Development,
	}))

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes mounts the REST handlers under /api
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	datasetHandler := handlers.NewDatasetHandler(a.DatasetService, a.Logger, a.ErrorHandler, handlers.DatasetHandlerOptions{
		MaxPerPage: a.Config.Pipeline.MaxPerPage,
	})
	analysisHandler := handlers.NewAnalysisHandler(a.DatasetService, a.Logger, a.ErrorHandler)
	reportHandler := handlers.NewReportHandler(a.DatasetService, a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

			r.With(customMiddleware.BodyLimit(a.uploadBodyLimit())).Mount("/datasets", datasetHandler.Routes())

			r.Group(func(r chi.Router) {
				r.Use(customMiddleware.BodyLimit(jsonBodyLimit))
				r.Mount("/analysis", analysisHandler.Routes())
				r.Mount("/reports", reportHandler.Routes())
			})
		})
	})
}

// uploadBodyLimit leaves room for multipart framing on top of the file limit.
func (a *Application) uploadBodyLimit() int64 {
	return a.Config.Pipeline.MaxUploadBytes*maxFilesPerUpload + jsonBodyLimit
}

// getCORSConfig builds the CORS settings from the security configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cors := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
	if a.Config.Logging.Development {
		cors.AllowedOrigins = append(cors.AllowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	a.Logger.Info("CORS configured",
		slog.Any("allowed_origins", cors.AllowedOrigins),
		slog.Bool("development", a.Config.Logging.Development))
	return cors
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the server and background collectors. A listen failure cancels ctx.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("registry_version", a.Registry.Version()))

	if a.runtime != nil {
		go a.runtime.Start(ctx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	status := a.HealthService.ReadinessCheck(ctx)
	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.String("readiness", status.Status))
	return nil
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

	if a.runtime != nil {
		a.runtime.Stop()
	}
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted or until the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
