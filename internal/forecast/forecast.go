package forecast

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

const (
	DefaultHorizon   = 3
	DefaultMinPoints = 3
)

type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusFitFailed        Status = "fit_failed"
)

// Result is the outcome of one forecast run. Points is empty unless Status
// is StatusOK; Reason explains any other status.
type Result struct {
	Status  Status                 `json:"status"`
	Points  []models.ForecastPoint `json:"points"`
	Reason  string                 `json:"reason,omitempty"`
	Summary *Summary               `json:"summary,omitempty"`
}

func (r Result) OK() bool {
	return r.Status == StatusOK
}

type Forecaster struct {
	minPoints int
}

// New returns a Forecaster that requires at least minPoints monthly values.
// Values below 3 are raised to 3.
func New(minPoints int) *Forecaster {
	return &Forecaster{minPoints: max(minPoints, DefaultMinPoints)}
}

// Forecast fits history and predicts horizon further months, starting with
// the month after the last historical one. Predictions are not clamped and
// may be negative.
func (f *Forecaster) Forecast(ctx context.Context, history []models.MonthlyPoint, horizon int) Result {
	_, span := observability.StartSpan(ctx, "forecast.Forecast",
		attribute.Int("history", len(history)),
		attribute.Int("horizon", horizon),
	)
	defer span.End()

	res := f.run(history, horizon)
	span.SetAttributes(attribute.String("status", string(res.Status)))
	return res
}

func (f *Forecaster) run(history []models.MonthlyPoint, horizon int) Result {
	if horizon < 1 {
		return Result{Status: StatusFitFailed, Reason: fmt.Sprintf("invalid horizon %d", horizon)}
	}
	if len(history) < f.minPoints {
		return Result{
			Status: StatusInsufficientData,
			Reason: fmt.Sprintf("need at least %d monthly points, have %d", f.minPoints, len(history)),
		}
	}

	values := make([]float64, len(history))
	for i, p := range history {
		values[i] = p.Sales
	}

	model := NewModel()
	if err := model.Fit(values); err != nil {
		return Result{Status: StatusFitFailed, Reason: err.Error()}
	}
	predicted, err := model.Predict(horizon)
	if err != nil {
		return Result{Status: StatusFitFailed, Reason: err.Error()}
	}
	if !allFinite(predicted) {
		return Result{Status: StatusFitFailed, Reason: ErrNotFinite.Error()}
	}

	last := history[len(history)-1].Month
	last = time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)

	points := make([]models.ForecastPoint, horizon)
	for i, v := range predicted {
		points[i] = models.ForecastPoint{Month: last.AddDate(0, i+1, 0), Sales: v}
	}

	summary := model.Summary()
	return Result{Status: StatusOK, Points: points, Summary: &summary}
}

// Forecast runs a default Forecaster.
func Forecast(ctx context.Context, history []models.MonthlyPoint, horizon int) Result {
	return New(DefaultMinPoints).Forecast(ctx, history, horizon)
}
