package report

import (
	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/forecast"
	"superstore-dashboard/internal/services"
)

// ChartData maps a snapshot onto chart inputs. Without data every chart is a
// placeholder.
func ChartData(snap *services.Snapshot) charts.Data {
	if !snap.HasData() {
		return charts.Data{ForecastNote: "no data"}
	}
	d := charts.Data{
		Monthly:     snap.Monthly,
		TopProducts: snap.TopProducts,
		Regions:     snap.Regions,
		Scatter:     snap.Scatter,
		Forecast:    snap.Forecast.Points,
	}
	switch snap.Forecast.Status {
	case forecast.StatusInsufficientData:
		d.ForecastNote = "not enough data"
	case forecast.StatusFitFailed:
		d.ForecastNote = "forecast unavailable"
	}
	return d
}
