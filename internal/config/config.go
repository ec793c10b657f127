package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. MDE_SERVER_PORT.
const EnvPrefix = "MDE"

// ConfigFileEnv names an explicit YAML config file.
const ConfigFileEnv = "MDE_CONFIG_FILE"

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Security    SecurityConfig    `yaml:"security" envconfig:"SECURITY"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket   WebSocketConfig   `yaml:"websocket" envconfig:"WEBSOCKET"`
	Pipeline    PipelineConfig    `yaml:"pipeline" envconfig:"PIPELINE"`
	Quality     QualityConfig     `yaml:"quality" envconfig:"QUALITY"`
	Anomaly     AnomalyConfig     `yaml:"anomaly" envconfig:"ANOMALY"`
	Performance PerformanceConfig `yaml:"performance" envconfig:"PERFORMANCE"`
	Insights    InsightsConfig    `yaml:"insights" envconfig:"INSIGHTS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// RequestTimeout bounds analysis and report requests.
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL"`
	// Output is console, file or both.
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool    `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	StdoutTraces   bool    `yaml:"stdout_traces" envconfig:"STDOUT_TRACES"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// PipelineConfig contains ingestion and normalization settings
type PipelineConfig struct {
	DefaultCurrency    string   `yaml:"default_currency" envconfig:"DEFAULT_CURRENCY"`
	DetectionThreshold float64  `yaml:"detection_threshold" envconfig:"DETECTION_THRESHOLD"`
	MaxUploadBytes     int64    `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	AllowedExtensions  []string `yaml:"allowed_extensions" envconfig:"ALLOWED_EXTENSIONS"`
	MaxPerPage         int      `yaml:"max_per_page" envconfig:"MAX_PER_PAGE"`
	Workers            int      `yaml:"workers" envconfig:"WORKERS"`
	SampleDays         int      `yaml:"sample_days" envconfig:"SAMPLE_DAYS"`
	// SchemaFile extends the built-in platform mappings.
	SchemaFile string `yaml:"schema_file" envconfig:"SCHEMA_FILE"`
}

// QualityConfig contains quality scoring windows
type QualityConfig struct {
	RecencyWindow time.Duration `yaml:"recency_window" envconfig:"RECENCY_WINDOW"`
	MaxStaleness  time.Duration `yaml:"max_staleness" envconfig:"MAX_STALENESS"`
}

// AnomalyConfig contains statistical detection thresholds
type AnomalyConfig struct {
	ZThreshold    float64 `yaml:"z_threshold" envconfig:"Z_THRESHOLD"`
	IQRMultiplier float64 `yaml:"iqr_multiplier" envconfig:"IQR_MULTIPLIER"`
	MinSampleSize int     `yaml:"min_sample_size" envconfig:"MIN_SAMPLE_SIZE"`
}

// PerformanceConfig contains business rule thresholds
type PerformanceConfig struct {
	CPAMultiple    float64 `yaml:"cpa_multiple" envconfig:"CPA_MULTIPLE"`
	CTRFloor       float64 `yaml:"ctr_floor" envconfig:"CTR_FLOOR"`
	MinImpressions float64 `yaml:"min_impressions" envconfig:"MIN_IMPRESSIONS"`
	ROASFloor      float64 `yaml:"roas_floor" envconfig:"ROAS_FLOOR"`
}

// InsightsConfig selects the insights engine
type InsightsConfig struct {
	// Mode is rule_based or external.
	Mode     string        `yaml:"mode" envconfig:"MODE"`
	Endpoint string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	APIKey   string        `yaml:"api_key" envconfig:"API_KEY"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// Load builds the configuration. Defaults are overlaid by the YAML file, then by MDE_*
// environment variables; a .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path := configFilePath(); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file on cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// configFilePath returns MDE_CONFIG_FILE, or the first config file found in the usual places
func configFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	if len(c.Pipeline.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid default currency: %q", c.Pipeline.DefaultCurrency)
	}
	c.Pipeline.DefaultCurrency = strings.ToUpper(c.Pipeline.DefaultCurrency)
	if c.Pipeline.DetectionThreshold < 0 || c.Pipeline.DetectionThreshold > 1 {
		return fmt.Errorf("detection threshold must be within [0, 1]: %v", c.Pipeline.DetectionThreshold)
	}
	if c.Pipeline.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 1
	}

	switch c.Insights.Mode {
	case "rule_based", "external":
	default:
		return fmt.Errorf("invalid insights mode: %q", c.Insights.Mode)
	}
	if c.Insights.Mode == "external" && c.Insights.Endpoint == "" {
		return fmt.Errorf("insights endpoint is required in external mode")
	}
	return nil
}

// Address returns the listen address of the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     120 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "marketing-data-engine",
			Environment:    "development",
			TracingEnabled: true,
			MetricsEnabled: true,
			SampleRate:     1.0,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      54 * time.Second,
			PongWait:        60 * time.Second,
		},
		Pipeline: PipelineConfig{
			DefaultCurrency:    "USD",
			DetectionThreshold: 0.2,
			MaxUploadBytes:     50 << 20,
			AllowedExtensions:  []string{".csv", ".xlsx", ".json"},
			MaxPerPage:         1000,
			Workers:            4,
			SampleDays:         30,
		},
		Quality: QualityConfig{
			RecencyWindow: 7 * 24 * time.Hour,
			MaxStaleness:  90 * 24 * time.Hour,
		},
		Anomaly: AnomalyConfig{
			ZThreshold:    3,
			IQRMultiplier: 1.5,
			MinSampleSize: 10,
		},
		Performance: PerformanceConfig{
			CPAMultiple:    2,
			CTRFloor:       0.005,
			MinImpressions: 1000,
			ROASFloor:      1,
		},
		Insights: InsightsConfig{
			Mode:    "rule_based",
			Timeout: 30 * time.Second,
		},
	}
}
