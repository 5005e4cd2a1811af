package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/server"
	"superstore-dashboard/internal/services"
	"superstore-dashboard/internal/ui/templates"
)

const (
	version        = "1.0.0"
	renderTimeout  = 10 * time.Second
	warmUpTimeout  = 60 * time.Second
	dashboardCache = "no-cache"
)

func dashboardHandler(cfg *config.Config) http.HandlerFunc {
	page := templates.Page{
		Title:   cfg.Report.Title,
		TopN:    cfg.Analytics.TopN,
		Horizon: cfg.Analytics.ForecastHorizon,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", dashboardCache)
		if err := templates.Dashboard(page).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newApp builds the analytics stack and its HTTP server from cfg.
func newApp(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*services.Analytics, *server.Server) {
	metrics := observability.NewMetrics(reg)

	store := services.NewStore(loader.New(logger), services.StoreOptions{
		CacheDir:     cfg.Data.CacheDir,
		CacheEnabled: cfg.Data.CacheEnabled,
		Logger:       logger,
		Metrics:      metrics,
	})
	analytics := services.NewAnalytics(store, cfg.Data.File, cfg.Analytics, logger, metrics)

	srv := server.NewServer(analytics, charts.NewRenderer(), cfg, logger, metrics,
		&server.TemplateHandlers{Dashboard: dashboardHandler(cfg)})
	return analytics, srv
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"data_file", cfg.Data.File,
	)

	shutdownTracing, err := observability.InitTracing(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	analytics, srv := newApp(cfg, logger, reg)

	// A missing source is not fatal: the dashboard shows a no-data state
	// until the file appears and /admin/reload is called.
	ctx, cancel := context.WithTimeout(context.Background(), warmUpTimeout)
	start := time.Now()
	if _, err := analytics.Dataset(ctx); err != nil {
		logger.Warn("starting without data", "source", cfg.Data.File, "error", err)
	} else {
		logger.Info("data loaded", "source", cfg.Data.File, "duration", time.Since(start))
	}
	cancel()

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook("tracing", shutdownTracing)

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
