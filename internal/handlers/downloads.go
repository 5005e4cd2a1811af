package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"superstore-dashboard/internal/charts"
	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/report"
	"superstore-dashboard/internal/services"
)

// DownloadHandlers serve chart images and export files for the current filter.
type DownloadHandlers struct {
	analytics *services.Analytics
	renderer  charts.Renderer
	title     string
	logger    *slog.Logger
}

func NewDownloadHandlers(analytics *services.Analytics, renderer charts.Renderer, title string, logger *slog.Logger) *DownloadHandlers {
	return &DownloadHandlers{
		analytics: analytics,
		renderer:  renderer,
		title:     title,
		logger:    logger,
	}
}

func (h *DownloadHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.WriteError(r.Context(), w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *DownloadHandlers) snapshot(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
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
	return snap, true
}

func (h *DownloadHandlers) requireData(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return nil, false
	}
	if !snap.HasData() {
		h.fail(w, r, apperrors.NoData(errors.New(snap.Reason)))
		return nil, false
	}
	return snap, true
}

// send buffers the body so a failed render still produces a JSON error
// instead of a truncated file.
func (h *DownloadHandlers) send(w http.ResponseWriter, r *http.Request, contentType, filename string, write func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.fail(w, r, apperrors.InternalWrap(err, "Failed to render "+filename))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "write download", "file", filename, "error", err)
	}
}

func (h *DownloadHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	kind, ok := charts.ParseKind(r.PathValue("chart"))
	if !ok {
		h.fail(w, r, apperrors.NotFound("Unknown chart").WithDetails(r.PathValue("chart")))
		return
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	h.send(w, r, "image/png", "", func(buf *bytes.Buffer) error {
		return h.renderer.Render(buf, kind, report.ChartData(snap))
	})
}

func (h *DownloadHandlers) HandleOrdersCSV(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.requireData(w, r)
	if !ok {
		return
	}
	h.send(w, r, "text/csv; charset=utf-8", "filtered_orders.csv", func(buf *bytes.Buffer) error {
		return report.WriteOrdersCSV(buf, snap.Dataset, snap.Orders)
	})
}

func (h *DownloadHandlers) HandleOrdersXLSX(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.requireData(w, r)
	if !ok {
		return
	}
	h.send(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "superstore_summary.xlsx", func(buf *bytes.Buffer) error {
		return report.WriteWorkbook(buf, snap, h.title)
	})
}

func (h *DownloadHandlers) HandleForecastCSV(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.requireData(w, r)
	if !ok {
		return
	}
	h.send(w, r, "text/csv; charset=utf-8", "forecast.csv", func(buf *bytes.Buffer) error {
		return report.WriteForecastCSV(buf, snap.Forecast.Points)
	})
}

func (h *DownloadHandlers) HandleReportPDF(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.requireData(w, r)
	if !ok {
		return
	}
	h.send(w, r, "application/pdf", "Insights_Report.pdf", func(buf *bytes.Buffer) error {
		out, err := report.BuildPDF(snap, h.title, h.renderer)
		if err != nil {
			return err
		}
		_, err = buf.Write(out)
		return err
	})
}
