package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
	Logger    LoggerConfig    `yaml:"logger" envconfig:"LOG"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

type DataConfig struct {
	File         string `yaml:"file" split_words:"true"`
	CacheDir     string `yaml:"cache_dir" split_words:"true"`
	CacheEnabled bool   `yaml:"cache_enabled" split_words:"true"`
}

type AnalyticsConfig struct {
	TopN              int `yaml:"top_n" split_words:"true"`
	ForecastHorizon   int `yaml:"forecast_horizon" split_words:"true"`
	ForecastMinPoints int `yaml:"forecast_min_points" split_words:"true"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"`
}

type SecurityConfig struct {
	RateLimitEnabled bool     `yaml:"rate_limit_enabled" split_words:"true"`
	RateLimitRPS     int      `yaml:"rate_limit_rps" split_words:"true"`
	RateLimitBurst   int      `yaml:"rate_limit_burst" split_words:"true"`
	AllowedOrigins   []string `yaml:"allowed_origins" split_words:"true"`
	TrustedProxies   []string `yaml:"trusted_proxies" split_words:"true"`
}

type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" split_words:"true"`
	TraceExporter string  `yaml:"trace_exporter" split_words:"true"`
	SampleRatio   float64 `yaml:"sample_ratio" split_words:"true"`
}

type ReportConfig struct {
	OutputDir string `yaml:"output_dir" split_words:"true"`
	Title     string `yaml:"title" split_words:"true"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Data: DataConfig{
			File:         "data/Sample_Superstore.csv",
			CacheDir:     ".cache",
			CacheEnabled: true,
		},
		Analytics: AnalyticsConfig{
			TopN:              10,
			ForecastHorizon:   3,
			ForecastMinPoints: 3,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			RateLimitEnabled: true,
			RateLimitRPS:     100,
			RateLimitBurst:   10,
			AllowedOrigins:   []string{"http://localhost:8084"},
			TrustedProxies:   []string{"127.0.0.1"},
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "superstore-dashboard",
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
		Report: ReportConfig{
			OutputDir: "output",
			Title:     "Superstore Analytics: Executive Summary",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables such as SERVER_PORT,
// DATA_FILE or LOG_LEVEL.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.File == "" {
		return fmt.Errorf("data file path cannot be empty")
	}

	if c.Analytics.TopN <= 0 {
		return fmt.Errorf("top N must be positive, got %d", c.Analytics.TopN)
	}

	if c.Analytics.ForecastHorizon <= 0 {
		return fmt.Errorf("forecast horizon must be positive, got %d", c.Analytics.ForecastHorizon)
	}

	if c.Analytics.ForecastMinPoints < 3 {
		return fmt.Errorf("forecast min points must be at least 3, got %d", c.Analytics.ForecastMinPoints)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	validExporters := []string{"none", "stdout"}
	if !slices.Contains(validExporters, c.Telemetry.TraceExporter) {
		return fmt.Errorf("invalid trace exporter %q, must be one of: %s", c.Telemetry.TraceExporter, strings.Join(validExporters, ", "))
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be within [0, 1], got %g", c.Telemetry.SampleRatio)
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
