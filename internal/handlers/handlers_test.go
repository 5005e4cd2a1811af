package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/services"
)

const ordersCSV = `Order ID,Order Date,Region,Product Name,Sales,Quantity,Profit
A,2024-01-05,East,Chair,100,2,20
B,2024-01-20,West,Desk,50,1,-5
C,2024-02-10,East,Chair,200,4,40
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAnalytics(t *testing.T, content string) *services.Analytics {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	store := services.NewStore(loader.New(testLogger()), services.StoreOptions{})
	return services.NewAnalytics(store, path, config.Default().Analytics, testLogger(), nil)
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func serve(h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	h := NewAPIHandlers(newTestAnalytics(t, ordersCSV), testLogger())

	rec := serve(h.HandleHealth, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["data_loaded"])
}

func TestHandleKPIs(t *testing.T) {
	h := NewAPIHandlers(newTestAnalytics(t, ordersCSV), testLogger())

	tests := []struct {
		name   string
		target string
		sales  float64
		orders int
	}{
		{"all regions", "/api/kpis", 350, 3},
		{"empty selection is all", "/api/kpis?regions=", 350, 3},
		{"east only", "/api/kpis?region=East", 300, 2},
		{"date range", "/api/kpis?from=2024-01-01&to=2024-01-31", 150, 2},
		{"explicit none", "/api/kpis?regions=none", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h.HandleKPIs, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var kpis struct {
				TotalSales float64 `json:"total_sales"`
				Orders     int     `json:"orders"`
			}
			require.NoError(t, json.Unmarshal(decode(t, rec).Data, &kpis))
			assert.InDelta(t, tt.sales, kpis.TotalSales, 1e-9)
			assert.Equal(t, tt.orders, kpis.Orders)
		})
	}
}

func TestHandleKPIsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  string
		status  int
		code    string
	}{
		{"missing source", "", "/api/kpis", http.StatusServiceUnavailable, "NO_DATA"},
		{"bad date", ordersCSV, "/api/kpis?from=yesterday", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"inverted range", ordersCSV, "/api/kpis?from=2024-03-01&to=2024-01-01", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"top not a number", ordersCSV, "/api/kpis?top=ten", http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAPIHandlers(newTestAnalytics(t, tt.content), testLogger())
			rec := serve(h.HandleKPIs, http.MethodGet, tt.target)

			assert.Equal(t, tt.status, rec.Code)
			env := decode(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestHandleAggregates(t *testing.T) {
	h := NewAPIHandlers(newTestAnalytics(t, ordersCSV), testLogger())

	rec := serve(h.HandleMonthlySales, http.MethodGet, "/api/monthly-sales")
	require.Equal(t, http.StatusOK, rec.Code)
	var monthly []struct {
		Sales float64 `json:"sales"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &monthly))
	require.Len(t, monthly, 2)
	assert.InDelta(t, 150.0, monthly[0].Sales, 1e-9)
	assert.InDelta(t, 200.0, monthly[1].Sales, 1e-9)

	rec = serve(h.HandleTopProducts, http.MethodGet, "/api/top-products?top=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var top []struct {
		Key   string  `json:"key"`
		Sales float64 `json:"sales"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &top))
	require.Len(t, top, 1)
	assert.Equal(t, "Chair", top[0].Key)

	rec = serve(h.HandleSalesByRegion, http.MethodGet, "/api/sales-by-region")
	require.Equal(t, http.StatusOK, rec.Code)
	var regions []struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &regions))
	assert.Len(t, regions, 2)

	rec = serve(h.HandleProfitVsSales, http.MethodGet, "/api/profit-vs-sales")
	require.Equal(t, http.StatusOK, rec.Code)
	var scatter []map[string]float64
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &scatter))
	assert.Len(t, scatter, 3)
}

func TestHandleForecastInsufficientHistory(t *testing.T) {
	h := NewAPIHandlers(newTestAnalytics(t, ordersCSV), testLogger())

	rec := serve(h.HandleForecast, http.MethodGet, "/api/forecast")

	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Status string `json:"status"`
		Points []any  `json:"points"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.Equal(t, "insufficient_data", res.Status)
	assert.Empty(t, res.Points)
}

func TestHandleFiltersAndReload(t *testing.T) {
	h := NewAPIHandlers(newTestAnalytics(t, ordersCSV), testLogger())

	rec := serve(h.HandleFilters, http.MethodGet, "/api/filters")
	require.Equal(t, http.StatusOK, rec.Code)
	var opts struct {
		Regions []string `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &opts))
	assert.Equal(t, []string{"East", "West"}, opts.Regions)

	rec = serve(h.HandleReload, http.MethodPost, "/admin/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Loaded bool `json:"loaded"`
		Orders int  `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &stats))
	assert.True(t, stats.Loaded)
	assert.Equal(t, 3, stats.Orders)

	rec = serve(h.HandleStats, http.MethodGet, "/admin/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReloadMissingSource(t *testing.T) {
	h := NewAPIHandlers(newTestAnalytics(t, ""), testLogger())

	rec := serve(h.HandleReload, http.MethodPost, "/admin/reload")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "NO_DATA", decode(t, rec).Error.Code)
}

func newDownloads(t *testing.T, content string) *DownloadHandlers {
	return NewDownloadHandlers(newTestAnalytics(t, content), charts.NewRenderer(), "Test Report", testLogger())
}

func TestHandleChart(t *testing.T) {
	h := newDownloads(t, ordersCSV)

	for _, kind := range charts.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/charts/"+string(kind)+"?region=East", nil)
			req.SetPathValue("chart", string(kind))
			rec := httptest.NewRecorder()

			h.HandleChart(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
		})
	}
}

func TestHandleChartUnknownAndNoData(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/charts/pie", nil)
	req.SetPathValue("chart", "pie")
	rec := httptest.NewRecorder()
	newDownloads(t, ordersCSV).HandleChart(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/charts/monthly-trend", nil)
	req.SetPathValue("chart", "monthly-trend")
	rec = httptest.NewRecorder()
	newDownloads(t, "").HandleChart(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestHandleExports(t *testing.T) {
	h := newDownloads(t, ordersCSV)

	rec := serve(h.HandleOrdersCSV, http.MethodGet, "/export/orders.csv?region=West")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="filtered_orders.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "order_id,order_date,region"))
	assert.Contains(t, lines[1], "West")

	rec = serve(h.HandleForecastCSV, http.MethodGet, "/export/forecast.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "month,predicted_sales", strings.TrimSpace(rec.Body.String()))

	rec = serve(h.HandleOrdersXLSX, http.MethodGet, "/export/orders.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

	rec = serve(h.HandleReportPDF, http.MethodGet, "/export/report.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestHandleExportsWithoutData(t *testing.T) {
	h := newDownloads(t, "")

	for name, handle := range map[string]http.HandlerFunc{
		"orders csv":   h.HandleOrdersCSV,
		"orders xlsx":  h.HandleOrdersXLSX,
		"forecast csv": h.HandleForecastCSV,
		"report pdf":   h.HandleReportPDF,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(handle, http.MethodGet, "/export")
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Empty(t, rec.Header().Get("Content-Disposition"))
		})
	}
}

func datastarTarget(t *testing.T, path string, signals map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(signals)
	require.NoError(t, err)
	return path + "?" + url.Values{datastarParam: {string(raw)}}.Encode()
}

func TestSSEDashboard(t *testing.T) {
	h := NewSSEHandlers(newTestAnalytics(t, ordersCSV), testLogger())

	target := datastarTarget(t, "/sse/dashboard", map[string]any{
		"from": "", "to": "", "regions": []string{"East"}, "top": 5, "horizon": 3,
	})
	rec := serve(h.HandleDashboard, http.MethodGet, target)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")

	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-elements")
	for _, id := range []string{"status", "kpis", "charts", "forecast-table", "downloads"} {
		assert.Contains(t, body, `id="`+id+`"`)
	}
	assert.Contains(t, body, "$300.00")
	assert.Contains(t, body, "/charts/monthly-trend?")
	assert.Contains(t, body, "region=East")
	assert.Contains(t, body, "/export/report.pdf?")
	assert.Contains(t, body, "Not enough monthly history")
}

func TestSSEDashboardWithoutData(t *testing.T) {
	h := NewSSEHandlers(newTestAnalytics(t, ""), testLogger())

	rec := serve(h.HandleDashboard, http.MethodGet, "/sse/dashboard")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No sales data is available")
	assert.Contains(t, body, "Downloads are available once data is loaded")
	assert.NotContains(t, body, "/export/orders.csv")
}

func TestSSEDashboardInvalidSignals(t *testing.T) {
	h := NewSSEHandlers(newTestAnalytics(t, ordersCSV), testLogger())

	target := datastarTarget(t, "/sse/dashboard", map[string]any{"from": "01/02/2024"})
	rec := serve(h.HandleDashboard, http.MethodGet, target)

	body := rec.Body.String()
	assert.Contains(t, body, `id="status"`)
	assert.Contains(t, body, "Invalid filter parameters")
	assert.NotContains(t, body, `id="kpis"`)
}

func TestSSEFilters(t *testing.T) {
	h := NewSSEHandlers(newTestAnalytics(t, ordersCSV), testLogger())

	rec := serve(h.HandleFilters, http.MethodGet, "/sse/filters")

	body := rec.Body.String()
	assert.Contains(t, body, `value="East"`)
	assert.Contains(t, body, `value="West"`)
	assert.Contains(t, body, "data-bind-regions")
	assert.Contains(t, body, `min="2024-01-05"`)
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, "2024-02-10")
}
