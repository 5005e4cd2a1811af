package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/services"
)

const dateLayout = "2006-01-02"

// SSEHandlers patch the dashboard shell over datastar server-sent events.
type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// patch renders the named fragments in order and sends each as one element
// patch. It stops at the first failure.
func (h *SSEHandlers) patch(r *http.Request, sse *datastar.ServerSentEventGenerator, parts ...fragment) {
	for _, p := range parts {
		html, err := render(p.name, p.data)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "render fragment", "fragment", p.name, "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.WarnContext(r.Context(), "patch elements", "fragment", p.name, "error", err)
			return
		}
	}
}

type fragment struct {
	name string
	data any
}

// HandleFilters fills the filter panel from the loaded data and publishes the
// date bounds as signals.
func (h *SSEHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	opts, err := h.analytics.FilterOptions(r.Context())
	if err != nil {
		if !errors.Is(err, services.ErrNoData) {
			h.logger.ErrorContext(r.Context(), "filter options", "error", err)
		}
		h.patch(r, sse,
			fragment{"filters", filtersView{}},
			fragment{"status", statusMessages(nil)},
		)
		return
	}

	view := filtersView{
		Min:     opts.MinDate.Format(dateLayout),
		Max:     opts.MaxDate.Format(dateLayout),
		Regions: opts.Regions,
	}
	h.patch(r, sse, fragment{"filters", view})

	bounds, err := json.Marshal(map[string]any{
		"minDate": view.Min,
		"maxDate": view.Max,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "marshal date bounds", "error", err)
		return
	}
	if err := sse.PatchSignals(bounds); err != nil {
		h.logger.WarnContext(r.Context(), "patch signals", "error", err)
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleDashboard recomputes the snapshot for the current signals and
// replaces every data-dependent section.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	params, q, err := filterFromRequest(r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.patch(r, sse, fragment{"status", []string{err.Error()}})
		return
	}

	snap, err := h.analytics.Snapshot(r.Context(), q)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard snapshot", "error", err)
		h.patch(r, sse, fragment{"status", []string{"The dashboard could not be computed. Try again."}})
		return
	}

	query := template.URL(params.Encode())
	parts := []fragment{
		{"status", statusMessages(snap)},
		{"kpis", snap.KPIs},
		{"charts", chartsView{Kinds: charts.Kinds, Query: query}},
		{"forecast", snap.Forecast},
		{"downloads", template.URL("")},
	}
	if snap.HasData() {
		parts[len(parts)-1].data = query
	}
	h.patch(r, sse, parts...)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
