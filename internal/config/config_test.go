package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, 3, cfg.Analytics.ForecastHorizon)
	assert.Equal(t, 10, cfg.Analytics.TopN)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("DATA_FILE", "/srv/superstore.xlsx")
	t.Setenv("DATA_CACHE_ENABLED", "false")
	t.Setenv("ANALYTICS_TOP_N", "5")
	t.Setenv("ANALYTICS_FORECAST_HORIZON", "6")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TELEMETRY_SAMPLE_RATIO", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/srv/superstore.xlsx", cfg.Data.File)
	assert.False(t, cfg.Data.CacheEnabled)
	assert.Equal(t, 5, cfg.Analytics.TopN)
	assert.Equal(t, 6, cfg.Analytics.ForecastHorizon)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)

	// untouched values keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 7000
data:
  file: data/orders.csv
analytics:
  top_n: 20
report:
  title: Quarterly Review
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ANALYTICS_TOP_N", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "data/orders.csv", cfg.Data.File)
	assert.Equal(t, 15, cfg.Analytics.TopN, "env overrides file")
	assert.Equal(t, "Quarterly Review", cfg.Report.Title)
	assert.Equal(t, 3, cfg.Analytics.ForecastMinPoints)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
		{"port not a number", map[string]string{"SERVER_PORT": "http"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"zero top n", map[string]string{"ANALYTICS_TOP_N": "0"}},
		{"min points below three", map[string]string{"ANALYTICS_FORECAST_MIN_POINTS": "2"}},
		{"unknown exporter", map[string]string{"TELEMETRY_TRACE_EXPORTER": "zipkin"}},
		{"sample ratio above one", map[string]string{"TELEMETRY_SAMPLE_RATIO": "1.5"}},
		{"missing config file", map[string]string{"CONFIG_FILE": "/nonexistent/config.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
