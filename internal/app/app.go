// Package app assembles the application: configuration, logger, services,
// router and HTTP server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"insightgen/internal/config"
	"insightgen/internal/infrastructure"
	custommw "insightgen/internal/middleware"
	"insightgen/internal/services"
	handlers "insightgen/internal/transport/http"
)

// Version is the application version, overridable at build time.
var Version = "dev"

// Application is the main application container.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	ReportService *services.ReportService
	Logger        *slog.Logger
}

// NewApplication creates the application with its dependency graph wired.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	logger.Info("application starting", "version", Version, "port", cfg.Server.Port)

	reportService := services.NewReportService(cfg.Analysis, cfg.Upload.BenchmarksFile, logger)

	a := &Application{
		Config:        cfg,
		ReportService: reportService,
		Logger:        logger,
	}
	a.Router = a.setupRouter()
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

func (a *Application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.Config.Server.WriteTimeout))

	reportHandler := handlers.NewReportHandler(
		a.ReportService,
		a.Config.Upload.ReportsDir,
		a.Config.Upload.MaxSizeBytes,
		a.Logger,
	)
	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", handlers.NewHealthHandler(Version).Routes())
		r.Mount("/reports", reportHandler.Routes())
	})
	return r
}

// Run starts the HTTP server and blocks until shutdown.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		a.Logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}
