// Package server wires handlers onto routes and runs the HTTP server.
package server

import (
	"log/slog"
	"net/http"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/handlers"
	"superstore-dashboard/internal/middleware"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

type Server struct {
	mux              *http.ServeMux
	cfg              *config.Config
	logger           *slog.Logger
	metrics          *observability.Metrics
	apiHandlers      *handlers.APIHandlers
	sseHandlers      *handlers.SSEHandlers
	downloadHandlers *handlers.DownloadHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(
	analytics *services.Analytics,
	renderer charts.Renderer,
	cfg *config.Config,
	logger *slog.Logger,
	metrics *observability.Metrics,
	templateHandlers *TemplateHandlers,
) *Server {
	s := &Server{
		mux:              http.NewServeMux(),
		cfg:              cfg,
		logger:           logger,
		metrics:          metrics,
		apiHandlers:      handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:      handlers.NewSSEHandlers(analytics, logger),
		downloadHandlers: handlers.NewDownloadHandlers(analytics, renderer, cfg.Report.Title, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard and operations
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	// REST API endpoints
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/monthly-sales", s.apiHandlers.HandleMonthlySales)
	s.mux.HandleFunc("GET /api/top-products", s.apiHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /api/sales-by-region", s.apiHandlers.HandleSalesByRegion)
	s.mux.HandleFunc("GET /api/profit-vs-sales", s.apiHandlers.HandleProfitVsSales)
	s.mux.HandleFunc("GET /api/forecast", s.apiHandlers.HandleForecast)

	// Chart images and downloads
	s.mux.HandleFunc("GET /charts/{chart}", s.downloadHandlers.HandleChart)
	s.mux.HandleFunc("GET /export/orders.csv", s.downloadHandlers.HandleOrdersCSV)
	s.mux.HandleFunc("GET /export/orders.xlsx", s.downloadHandlers.HandleOrdersXLSX)
	s.mux.HandleFunc("GET /export/forecast.csv", s.downloadHandlers.HandleForecastCSV)
	s.mux.HandleFunc("GET /export/report.pdf", s.downloadHandlers.HandleReportPDF)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/filters", s.sseHandlers.HandleFilters)
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the routes behind the full middleware chain. Logger and
// Metrics sit directly above the mux so they see the matched pattern.
func (s *Server) Handler() http.Handler {
	chain := middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.TrustedProxy(s.cfg.Security),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(s.cfg.Security),
		middleware.RateLimit(middleware.NewRateLimiter(s.cfg.Security), s.logger),
		middleware.Logger(s.logger),
		middleware.Metrics(s.metrics),
	)
	return chain(s)
}
