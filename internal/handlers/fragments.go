package handlers

import (
	"html/template"
	"strings"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/forecast"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/report"
	"superstore-dashboard/internal/services"
)

var fragmentFuncs = template.FuncMap{
	"money":   report.FormatMoney,
	"percent": report.FormatPercent,
	"month": func(p models.ForecastPoint) string {
		return p.Month.Format("Jan 2006")
	},
}

var fragments = template.Must(template.New("fragments").Funcs(fragmentFuncs).Parse(`
{{define "filters"}}<div id="filters">
<label for="from">From</label>
<input id="from" type="date" min="{{.Min}}" max="{{.Max}}" data-bind-from>
<label for="to">To</label>
<input id="to" type="date" min="{{.Min}}" max="{{.Max}}" data-bind-to>
<fieldset><legend>Regions</legend>
{{range .Regions}}<label><input type="checkbox" value="{{.}}" data-bind-regions> {{.}}</label>
{{end}}<small>No selection shows every region.</small>
</fieldset>
<label for="top">Top products</label>
<input id="top" type="number" min="1" max="100" data-bind-top>
<label for="horizon">Forecast months</label>
<input id="horizon" type="number" min="1" max="24" data-bind-horizon>
</div>{{end}}

{{define "status"}}<div id="status">{{range .}}<div class="warning">{{.}}</div>{{end}}</div>{{end}}

{{define "kpis"}}<div id="kpis" class="kpis">
<div class="kpi">Total Sales<strong>{{money .TotalSales}}</strong></div>
<div class="kpi">Total Profit<strong>{{money .TotalProfit}}</strong></div>
<div class="kpi">Orders<strong>{{.Orders}}</strong></div>
<div class="kpi">Avg Order Value<strong>{{money .AvgOrderValue}}</strong></div>
<div class="kpi">Profit Margin<strong>{{percent .ProfitMargin}}</strong></div>
</div>{{end}}

{{define "charts"}}<div id="charts" class="charts">
{{range .Kinds}}<img src="/charts/{{.}}?{{$.Query}}" alt="{{.}} chart" loading="lazy">
{{end}}</div>{{end}}

{{define "forecast"}}<div id="forecast-table">
{{if eq .Status "ok"}}<table>
<thead><tr><th>Month</th><th>Predicted Sales</th></tr></thead>
<tbody>{{range .Points}}<tr><td>{{month .}}</td><td>{{money .Sales}}</td></tr>{{end}}</tbody>
</table>{{else}}<p>{{.Reason}}</p>{{end}}
</div>{{end}}

{{define "downloads"}}<div id="downloads">{{if .}}
<a href="/export/orders.csv?{{.}}">Filtered orders (CSV)</a> ·
<a href="/export/orders.xlsx?{{.}}">Summary workbook (XLSX)</a> ·
<a href="/export/forecast.csv?{{.}}">Forecast (CSV)</a> ·
<a href="/export/report.pdf?{{.}}">Executive summary (PDF)</a>
{{else}}<p>Downloads are available once data is loaded.</p>{{end}}</div>{{end}}
`))

type filtersView struct {
	Min, Max string
	Regions  []string
}

type chartsView struct {
	Kinds []charts.Kind
	Query template.URL
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := fragments.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// statusMessages lists the warnings shown above the dashboard.
func statusMessages(snap *services.Snapshot) []string {
	if !snap.HasData() {
		return []string{"No sales data is available. Check the configured data file and reload."}
	}
	var msgs []string
	if snap.Matched == 0 {
		msgs = append(msgs, "No orders match the selected filters.")
	}
	switch snap.Forecast.Status {
	case forecast.StatusInsufficientData:
		msgs = append(msgs, "Not enough monthly history in the selection to forecast.")
	case forecast.StatusFitFailed:
		msgs = append(msgs, "The forecast could not be computed: "+snap.Forecast.Reason)
	}
	return msgs
}
