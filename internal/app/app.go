package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"kpidash/internal/charts"
	"kpidash/internal/config"
	"kpidash/internal/dataprocessing"
	apierrors "kpidash/internal/errors"
	"kpidash/internal/i18n"
	"kpidash/internal/infrastructure"
	customMiddleware "kpidash/internal/middleware"
	"kpidash/internal/services"
	"kpidash/internal/session"
	"kpidash/internal/sheets"
	handlers "kpidash/internal/transport/http"
	"kpidash/internal/validation"
)

// BuildTime is set at compile time
var BuildTime = "unknown"

// sessions idle longer than the TTL are dropped at most this often
const maxSweepInterval = 5 * time.Minute

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	Sessions      *session.MemoryStore
	Dashboard     *services.DashboardService
	Health        *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication loads the configuration and logger and builds the
// application from them
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	return New(cfg, logger, providers)
}

// New wires the application from an already loaded configuration. A nil
// providers value disables tracing and metrics.
func New(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if providers == nil {
		providers = infrastructure.NoopProviders()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_time", BuildTime))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
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
	metrics, err := infrastructure.NewDashboardMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create dashboard metrics: %w", err)
	}
	a.Metrics = metrics

	a.Sessions = session.NewMemoryStore(a.Config.Dashboard.SessionTTL)

	renderer := charts.NewRenderer(a.Config.Dashboard.ChartWidth, a.Config.Dashboard.ChartHeight)
	if a.Paths.ChartFont != "" {
		font, err := charts.LoadFont(a.Paths.ChartFont)
		if err != nil {
			return err
		}
		renderer.Font = font
		a.Logger.Info("Chart font loaded", slog.String("path", a.Paths.ChartFont))
	}

	dashboard, err := services.NewDashboardService(services.DashboardDeps{
		Loader:     dataprocessing.NewLoader(a.Logger),
		Store:      a.Sessions,
		Renderer:   renderer,
		Metrics:    metrics,
		Tracer:     a.OTelProviders.Tracer,
		Logger:     a.Logger,
		SampleFile: a.Paths.SampleFile,
		Sheets:     a.sheetsFactory(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize dashboard service: %w", err)
	}
	a.Dashboard = dashboard

	a.Health = services.NewHealthService(config.AppVersion, a.Paths.SampleFile, a.Sessions, dashboard.SheetsEnabled(), a.Logger)
	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	return nil
}

// sheetsFactory returns nil when the Sheets source is not configured, which
// leaves the "Use Google Sheets" action disabled
func (a *Application) sheetsFactory() services.SourceFactory {
	if !a.Config.Sheets.Enabled {
		return nil
	}
	cfg := a.Config.Sheets
	if cfg.CredentialsFile != "" && !filepath.IsAbs(cfg.CredentialsFile) {
		cfg.CredentialsFile = filepath.Join(a.Paths.BaseDir, cfg.CredentialsFile)
	}
	return func(ctx context.Context) (dataprocessing.Source, error) {
		return sheets.NewSource(ctx, cfg, a.Logger)
	}
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → Logger → Recoverer → Metrics → Security
	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(a.ErrorHandler.Recoverer)
	r.Use(customMiddleware.Metrics(a.Metrics))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins:   a.Config.Security.AllowedOrigins,
			AllowCredentials: true,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	// Prometheus scrape endpoint sits outside /api and its timeout
	if a.OTelProviders.MetricsHandler != nil {
		r.Handle("/metrics", a.OTelProviders.MetricsHandler)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		dashboardHandler := handlers.NewDashboardHandler(
			a.Dashboard,
			validation.NewRequestValidator(),
			validation.NewFileValidator(a.Logger, a.Config.Server.MaxUploadBytes),
			handlers.SessionConfig{
				CookieName:      config.SessionCookieName,
				Secure:          a.Config.Security.SecureCookies,
				TTL:             a.Config.Dashboard.SessionTTL,
				DefaultLanguage: i18n.ParseOr(a.Config.Dashboard.DefaultLanguage, i18n.English),
			},
			a.Logger,
			a.ErrorHandler,
		)
		r.With(customMiddleware.MaxBodySize(a.Config.Server.MaxUploadBytes)).
			Mount("/", dashboardHandler.Routes())
	})
}

// Handler returns the traced root handler served by the HTTP server
func (a *Application) Handler() http.Handler {
	return otelhttp.NewHandler(a.Router, a.Config.Telemetry.ServiceName,
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		}))
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Handler(),
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening",
			slog.String("address", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.sweepSessions(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(gctx, "Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// sweepSessions drops expired sessions until ctx is done
func (a *Application) sweepSessions(ctx context.Context) {
	interval := a.Config.Dashboard.SessionTTL
	if interval <= 0 || interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Sessions.Sweep(); n > 0 {
				a.Logger.DebugContext(ctx, "Expired sessions removed",
					slog.Int("removed", n),
					slog.Int("active", a.Sessions.Len()))
			}
		}
	}
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

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("log file close error: %w", err))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// performStartupHealthCheck checks the data directory and the optional
// sample and Sheets inputs. Problems are warnings, the server still starts.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	testFile := filepath.Join(a.Paths.DataDir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		warnings = append(warnings, fmt.Sprintf("data directory not writable: %s", a.Paths.DataDir))
	} else {
		_ = os.Remove(testFile)
	}

	if !config.FileExists(a.Paths.SampleFile) {
		a.Logger.InfoContext(ctx, "Sample data file not found, run the sampledata command to create it",
			slog.String("path", a.Paths.SampleFile))
	}

	if a.Config.Sheets.Enabled && a.Config.Sheets.CredentialsFile != "" &&
		!config.FileExists(a.Config.Sheets.CredentialsFile) &&
		!config.FileExists(filepath.Join(a.Paths.BaseDir, a.Config.Sheets.CredentialsFile)) {
		warnings = append(warnings, fmt.Sprintf("sheets credentials file not found: %s", a.Config.Sheets.CredentialsFile))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
