package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

const numParams = 4

var (
	ErrTooShort  = errors.New("series too short")
	ErrZeroScale = errors.New("series is all zero")
	ErrNotFinite = errors.New("series contains non-finite values")
	ErrNotFitted = errors.New("model is not fitted")
)

// Summary describes a fitted model.
type Summary struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	SSE   float64 `json:"sse"`
	RMSE  float64 `json:"rmse"`
	// AIC is 0 for an exact fit, where the log-likelihood is unbounded.
	AIC float64 `json:"aic"`
	N   int     `json:"n"`
}

// Model is a Holt linear-trend smoother. The zero value is ready to Fit.
type Model struct {
	MaxIterations int

	fitted  bool
	scale   float64
	level   float64
	trend   float64
	summary Summary
}

func NewModel() *Model {
	return &Model{MaxIterations: 2000}
}

// Fit estimates the smoothing weights and the initial state of values.
func (m *Model) Fit(values []float64) error {
	m.fitted = false

	if len(values) < 2 {
		return ErrTooShort
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNotFinite
		}
	}

	scale := meanAbs(values)
	if scale == 0 {
		return ErrZeroScale
	}
	y := make([]float64, len(values))
	copy(y, values)
	floats.Scale(1/scale, y)

	// Start from alpha=0.5, beta=0.1 and the state that reproduces a
	// straight line through the first two points.
	x0 := []float64{
		logit(0.5),
		logit(0.1),
		2*y[0] - y[1],
		y[1] - y[0],
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sse, _, _ := smooth(y, sigmoid(x[0]), sigmoid(x[1]), x[2], x[3])
			return sse
		},
	}

	iterations := m.MaxIterations
	if iterations <= 0 {
		iterations = 2000
	}
	settings := &optimize.Settings{
		MajorIterations: iterations,
		FuncEvaluations: iterations * 10,
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if result == nil {
		return fmt.Errorf("optimize: %w", err)
	}
	if err != nil && !isFinite(result.F) {
		return fmt.Errorf("optimize: %w", err)
	}
	if !allFinite(result.X) || !isFinite(result.F) {
		return fmt.Errorf("optimize: %w", ErrNotFinite)
	}

	alpha, beta := sigmoid(result.X[0]), sigmoid(result.X[1])
	sse, level, trend := smooth(y, alpha, beta, result.X[2], result.X[3])

	n := len(y)
	sse *= scale * scale

	m.scale = scale
	m.level = level * scale
	m.trend = trend * scale
	m.summary = Summary{
		Alpha: alpha,
		Beta:  beta,
		SSE:   sse,
		RMSE:  math.Sqrt(sse / float64(n)),
		N:     n,
	}
	if sse > 0 {
		m.summary.AIC = float64(n)*math.Log(sse/float64(n)) + 2*numParams
	}
	m.fitted = true

	return nil
}

// Predict returns the next h values after the fitted series.
func (m *Model) Predict(h int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, h)
	for k := range out {
		out[k] = m.level + float64(k+1)*m.trend
	}
	return out, nil
}

func (m *Model) Summary() Summary {
	return m.summary
}

// smooth runs the Holt recursion from the state (l0, b0) that precedes the
// first observation. It returns the one-step-ahead SSE and the final state.
func smooth(y []float64, alpha, beta, l0, b0 float64) (sse, level, trend float64) {
	level, trend = l0, b0
	for _, v := range y {
		forecast := level + trend
		e := v - forecast
		sse += e * e

		prev := level
		level = alpha*v + (1-alpha)*forecast
		trend = beta*(level-prev) + (1-beta)*trend
	}
	return sse, level, trend
}

func meanAbs(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += math.Abs(v)
	}
	return sum / float64(len(values))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if !isFinite(x) {
			return false
		}
	}
	return true
}
