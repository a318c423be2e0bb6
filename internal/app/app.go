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
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"predictflow/internal/config"
	"predictflow/internal/dataprocessing"
	apierrors "predictflow/internal/errors"
	"predictflow/internal/infrastructure"
	"predictflow/internal/ingest"
	customMiddleware "predictflow/internal/middleware"
	"predictflow/internal/model"
	"predictflow/internal/services"
	handlers "predictflow/internal/transport/http"
	"predictflow/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Services      *ServiceContainer
	Holder        *model.Holder
	Watcher       *model.Watcher

	listener net.Listener
	group    *errgroup.Group
	cancelBg context.CancelFunc
	stopOnce sync.Once
	stopErr  error
	started  time.Time
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Auth       *services.AuthService
	Prediction *services.PredictionService
	Health     *services.HealthService
}

// NewApplication loads configuration and the logger from the environment and
// builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to load config", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component for cfg. The model artifact is loaded when it
// exists; otherwise the server starts without one and prediction endpoints
// answer 503 until a model appears.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		started: time.Now(),
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to resolve paths", err)
	}
	if err := paths.EnsureDirectories(logger); err != nil {
		return nil, apierrors.NewStorageError("failed to create directories", err).
			WithContext("base_dir", paths.BaseDir)
	}
	paths.LogPathResolution(logger)
	app.Paths = paths

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	app.OTelProviders = providers

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	app.Metrics = metrics

	if err := infrastructure.RegisterRuntimeMetrics(providers.Meter, app.started); err != nil {
		logger.Warn("Failed to register runtime metrics", slog.String("error", err.Error()))
	}

	if err := app.initializeModel(); err != nil {
		return nil, err
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeModel prepares the holder and watcher and loads the artifact if
// one is present. A corrupt artifact is fatal at startup.
func (a *Application) initializeModel() error {
	store := model.NewFileStore(a.Paths.ModelFile)
	a.Holder = model.NewHolder(nil)
	a.Watcher = model.NewWatcher(store, a.Holder, a.Logger, func(err error) {
		infrastructure.RecordModelReload(context.Background(), a.Metrics, err)
	})

	if !config.FileExists(a.Paths.ModelFile) {
		a.Logger.Warn("No model artifact found, serving without a model",
			slog.String("path", a.Paths.ModelFile))
		return nil
	}

	if err := a.Watcher.Reload(); err != nil {
		return fmt.Errorf("failed to load model from %s: %w", a.Paths.ModelFile, err)
	}
	return nil
}

// initializeServices creates the services the handlers depend on
func (a *Application) initializeServices() {
	converter := ingest.NewConverter(
		dataprocessing.NewBlockExtractor(dataprocessing.DefaultBlockLayout()),
		a.Logger,
	)

	a.Services = &ServiceContainer{
		Auth:       services.NewAuthService(a.Config.Auth, a.Metrics, a.Logger),
		Prediction: services.NewPredictionService(a.Holder, converter, a.Metrics, a.Logger),
		Health:     services.NewHealthService(a.Holder, a.Paths.ModelFile, a.Logger),
	}

	if !a.Config.HasUsers() {
		a.Logger.Warn("No users configured, login is disabled and protected endpoints are unreachable")
	}
}

// setupRouter builds the middleware chain in the order
// RequestID → RealIP → OTel → Logger → Recoverer → security → CORS → rate limit
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
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

	// Scrapes are neither rate limited nor traced
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Mount(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP).Routes())
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	authHandler := handlers.NewAuthHandler(a.Services.Auth, validation, a.Logger, errorHandler)
	predictHandler := handlers.NewPredictHandler(a.Services.Prediction, validation,
		a.Config.Server.MaxUploadBytes, a.Logger, errorHandler)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Compress(5))
		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		// Health checks answer immediately and need no timeout
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

			r.Mount("/login", authHandler.Routes())

			r.Group(func(r chi.Router) {
				r.Use(customMiddleware.AuthMiddleware(a.Logger, a.Services.Auth))
				r.Use(customMiddleware.AuditLog(a.Logger))

				r.Mount("/predict", predictHandler.Routes())
				r.Get("/model-info", predictHandler.ModelInfo)
			})
		})
	})
}

// getCORSConfig returns the CORS settings for the API
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := a.Config.Security.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			customMiddleware.RequestIDHeader,
		},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
		// Bearer tokens travel in a header, never in cookies
		AllowCredentials: false,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Addr returns the address the server listens on, or the configured one
// before Start
func (a *Application) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.Server.Addr
}

// Start binds the listener and serves in the background. A serve failure
// cancels ctx through cancel. When model watching is enabled the artifact is
// reloaded whenever it changes.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level),
		slog.Bool("model_loaded", a.Holder.Loaded()))

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	bgCtx, cancelBg := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(bgCtx)
	a.group = group
	a.cancelBg = cancelBg

	group.Go(func() error {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
			return err
		}
		return nil
	})

	if a.Config.Model.Watch {
		group.Go(func() error {
			if err := a.Watcher.Run(groupCtx); err != nil {
				// Serving continues; only hot reload is lost
				a.Logger.ErrorContext(ctx, "Model watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+ln.Addr().String()))
	return nil
}

// Stop gracefully stops the application. It is safe to call more than once.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.stopErr = a.stop(ctx)
	})
	return a.stopErr
}

func (a *Application) stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.cancelBg != nil {
		a.cancelBg()
	}
	if a.group != nil {
		if err := a.group.Wait(); err != nil {
			a.Logger.ErrorContext(ctx, "Background task failed", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	// ctx is already done; shutdown gets its own deadline
	return a.Stop(context.Background())
}

// performStartupHealthCheck reports conditions that do not stop the server
// but leave it degraded
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"Models": a.Paths.ModelsDir,
		"Data":   a.Paths.DataDir,
		"Logs":   a.Paths.LogsDir,
	}
	for name, dir := range directories {
		if dir == "" {
			continue
		}
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	if !a.Holder.Loaded() {
		warnings = append(warnings, fmt.Sprintf("no model loaded from %s", a.Paths.ModelFile))
	}
	if !a.Config.HasUsers() {
		warnings = append(warnings, "no users configured")
	}

	if len(warnings) > 0 {
		slices.Sort(warnings)
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
