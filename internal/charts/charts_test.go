package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/models"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleData() Data {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return Data{
		Monthly: []models.MonthlyPoint{
			{Month: jan, Sales: 150},
			{Month: jan.AddDate(0, 1, 0), Sales: 200},
			{Month: jan.AddDate(0, 2, 0), Sales: 260},
		},
		TopProducts: []models.CategoryTotal{
			{Key: "Chair", Sales: 300},
			{Key: "An exceptionally long product name that will not fit on the axis", Sales: 50},
		},
		Regions: []models.CategoryTotal{
			{Key: "East", Sales: 300},
			{Key: "West", Sales: 50},
		},
		Scatter: []models.ScatterPoint{
			{Sales: 100, Profit: 20},
			{Sales: 50, Profit: -5},
		},
		Forecast: []models.ForecastPoint{
			{Month: jan.AddDate(0, 3, 0), Sales: 310},
			{Month: jan.AddDate(0, 4, 0), Sales: 360},
		},
	}
}

func TestRenderAllKinds(t *testing.T) {
	r := NewRenderer()
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			out, err := r.PNG(kind, sampleData())
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, pngMagic))
		})
	}
}

func TestRenderEmptyInputsUsePlaceholder(t *testing.T) {
	r := Renderer{Width: 300, Height: 200}
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			out, err := r.PNG(kind, Data{})
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, pngMagic))
		})
	}
}

func TestForecastWithoutPrediction(t *testing.T) {
	d := sampleData()
	d.Forecast = nil
	d.ForecastNote = "not enough data"

	out, err := NewRenderer().PNG(KindForecast, d)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, pngMagic))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("top-products")
	assert.True(t, ok)
	assert.Equal(t, KindTopProducts, k)

	_, ok = ParseKind("pie")
	assert.False(t, ok)

	var buf bytes.Buffer
	assert.Error(t, NewRenderer().Render(&buf, Kind("pie"), Data{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
