package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

const version = "1.0.0"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	started   time.Time
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
		started:   time.Now(),
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.WriteError(r.Context(), w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) ok(w http.ResponseWriter, r *http.Request, data any) {
	w.Header().Set("Cache-Control", "no-store")
	if err := apperrors.WriteSuccess(w, data); err != nil {
		h.logger.WarnContext(r.Context(), "write response", "error", err)
	}
}

// snapshot computes the snapshot for the request filter, answering the
// request itself on any failure.
func (h *APIHandlers) snapshot(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
	_, q, err := filterFromRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}

	snap, err := h.analytics.Snapshot(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if !snap.HasData() {
		h.fail(w, r, apperrors.NoData(errors.New(snap.Reason)))
		return nil, false
	}
	return snap, true
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.analytics.Stats()
	h.ok(w, r, map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().Format(time.RFC3339),
		"version":     version,
		"uptime":      time.Since(h.started).Round(time.Second).String(),
		"data_loaded": st.Loaded,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.ok(w, r, h.analytics.Stats())
}

func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	st, err := h.analytics.Reload(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			h.fail(w, r, apperrors.NoData(err))
			return
		}
		h.fail(w, r, apperrors.InternalWrap(err, "Reload failed"))
		return
	}
	h.ok(w, r, st)
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.analytics.FilterOptions(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			h.fail(w, r, apperrors.NoData(err))
			return
		}
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, opts)
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		h.ok(w, r, snap.KPIs)
	}
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		h.ok(w, r, snap.Monthly)
	}
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		h.ok(w, r, snap.TopProducts)
	}
}

func (h *APIHandlers) HandleSalesByRegion(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		h.ok(w, r, snap.Regions)
	}
}

func (h *APIHandlers) HandleProfitVsSales(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		h.ok(w, r, snap.Scatter)
	}
}

// HandleForecast always answers 200 once data exists; the result's status
// says whether a forecast could be made.
func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w, r); ok {
		h.ok(w, r, snap.Forecast)
	}
}
