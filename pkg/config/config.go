// Package config provides configuration structures and loading logic for the
// parser service and CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/polisai/polis-whois/pkg/logging"
	"github.com/polisai/polis-whois/pkg/telemetry"
	"github.com/polisai/polis-whois/pkg/whois"
)

// Config holds the global configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Parser    ParserConfig    `yaml:"parser"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Batch     BatchConfig     `yaml:"batch"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TLS             *TLSConfig    `yaml:"tls,omitempty"`
}

// ParserConfig holds parser limits and table sources.
type ParserConfig struct {
	MaxInputBytes int    `yaml:"max_input_bytes"`
	MaxLines      int    `yaml:"max_lines"`
	Charset       string `yaml:"charset"`
	TablesFile    string `yaml:"tables_file"`
	KeepRawText   bool   `yaml:"keep_raw_text"`
}

// RateLimitConfig configures the HTTP token bucket.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// BatchConfig configures the CLI fan-out.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// TelemetryConfig holds configuration for OpenTelemetry.
type TelemetryConfig struct {
	ServiceName  string            `yaml:"service_name"`
	OTLPEndpoint string            `yaml:"otlp_endpoint"`
	Insecure     bool              `yaml:"insecure"`
	Environment  string            `yaml:"environment"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	SampleRatio  float64           `yaml:"sample_ratio"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8043",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Parser: ParserConfig{
			MaxInputBytes: whois.DefaultMaxInputBytes,
			MaxLines:      whois.DefaultMaxLines,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Batch: BatchConfig{
			Concurrency: 8,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "polis-whois",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("WHOIS_LISTEN_ADDR"); val != "" {
		cfg.Server.Address = val
	}

	if err := envInt("WHOIS_MAX_INPUT_BYTES", &cfg.Parser.MaxInputBytes); err != nil {
		return err
	}
	if err := envInt("WHOIS_MAX_LINES", &cfg.Parser.MaxLines); err != nil {
		return err
	}
	if val := os.Getenv("WHOIS_CHARSET"); val != "" {
		cfg.Parser.Charset = val
	}
	if val := os.Getenv("WHOIS_TABLES_FILE"); val != "" {
		cfg.Parser.TablesFile = val
	}
	if val := os.Getenv("WHOIS_KEEP_RAW_TEXT"); val == "true" {
		cfg.Parser.KeepRawText = true
	}

	if val := os.Getenv("WHOIS_RATE_LIMIT_ENABLED"); val != "" {
		cfg.RateLimit.Enabled = val == "true"
	}
	if val := os.Getenv("WHOIS_RATE_LIMIT_RPS"); val != "" {
		rps, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("WHOIS_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RequestsPerSecond = rps
	}
	if err := envInt("WHOIS_RATE_LIMIT_BURST", &cfg.RateLimit.Burst); err != nil {
		return err
	}

	if err := envInt("WHOIS_CONCURRENCY", &cfg.Batch.Concurrency); err != nil {
		return err
	}

	if val := os.Getenv("WHOIS_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("WHOIS_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}
	if val := os.Getenv("WHOIS_ENVIRONMENT"); val != "" {
		cfg.Telemetry.Environment = val
	}

	if val := os.Getenv("WHOIS_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("WHOIS_LOG_PRETTY"); val == "true" {
		cfg.Logging.Pretty = true
	}

	if val := os.Getenv("WHOIS_TLS_CERT_FILE"); val != "" {
		if cfg.Server.TLS == nil {
			cfg.Server.TLS = &TLSConfig{}
		}
		cfg.Server.TLS.Enabled = true
		cfg.Server.TLS.CertFile = val
	}
	if val := os.Getenv("WHOIS_TLS_KEY_FILE"); val != "" {
		if cfg.Server.TLS == nil {
			cfg.Server.TLS = &TLSConfig{}
		}
		cfg.Server.TLS.KeyFile = val
	}

	return nil
}

func envInt(name string, dst *int) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// Validate performs validation of the entire configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration: %w", err)
	}
	if err := c.Parser.Validate(); err != nil {
		return fmt.Errorf("parser configuration: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration: %w", err)
	}
	if err := c.Batch.Validate(); err != nil {
		return fmt.Errorf("batch configuration: %w", err)
	}
	if r := c.Telemetry.SampleRatio; r < 0 || r > 1 {
		return NewConfigValidationError("telemetry.sample_ratio", r, "must be between 0 and 1")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging configuration: %w", err)
	}
	return nil
}

// Validate performs validation of server configuration.
func (c *ServerConfig) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = ":8043"
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		return NewConfigValidationError("server.timeouts", nil, "timeouts must not be negative")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return fmt.Errorf("TLS configuration: %w", err)
		}
	}
	return nil
}

// Validate performs validation of parser configuration.
func (c *ParserConfig) Validate() error {
	if c.MaxInputBytes < 0 {
		return NewConfigValidationError("parser.max_input_bytes", c.MaxInputBytes, "must not be negative")
	}
	if c.MaxLines < 0 {
		return NewConfigValidationError("parser.max_lines", c.MaxLines, "must not be negative")
	}
	if c.Charset != "" {
		if _, err := whois.LookupCharset(c.Charset); err != nil {
			return NewConfigValidationError("parser.charset", c.Charset, err.Error())
		}
	}
	return nil
}

// Validate performs validation of rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RequestsPerSecond <= 0 {
		return NewConfigValidationError("rate_limit.requests_per_second", c.RequestsPerSecond, "must be positive when enabled")
	}
	if c.Burst <= 0 {
		return NewConfigValidationError("rate_limit.burst", c.Burst, "must be positive when enabled")
	}
	return nil
}

// Validate performs validation of batch configuration.
func (c *BatchConfig) Validate() error {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	return nil
}

// Validate performs validation of logging configuration.
func (c *LoggingConfig) Validate() error {
	if strings.TrimSpace(c.Level) == "" {
		c.Level = "info"
	}

	level := strings.TrimSpace(strings.ToLower(c.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Level = level
		return nil
	default:
		return fmt.Errorf("invalid log level %q, supported levels: debug, info, warn, error", c.Level)
	}
}

// ParserOptions translates the parser section into whois options. Tables are
// loaded separately so they can be watched.
func (c *Config) ParserOptions() ([]whois.Option, error) {
	opts := []whois.Option{
		whois.WithMaxInputBytes(c.Parser.MaxInputBytes),
		whois.WithMaxLines(c.Parser.MaxLines),
		whois.WithRawText(c.Parser.KeepRawText),
	}
	if c.Parser.Charset != "" {
		cs, err := whois.LookupCharset(c.Parser.Charset)
		if err != nil {
			return nil, fmt.Errorf("charset %q: %w", c.Parser.Charset, err)
		}
		opts = append(opts, whois.WithCharset(cs))
	}
	return opts, nil
}

// TelemetrySettings returns the telemetry provider settings.
func (c *Config) TelemetrySettings() telemetry.Config {
	return telemetry.Config{
		ServiceName: c.Telemetry.ServiceName,
		Endpoint:    c.Telemetry.OTLPEndpoint,
		Environment: c.Telemetry.Environment,
		Insecure:    c.Telemetry.Insecure,
		Headers:     c.Telemetry.Headers,
		SampleRatio: c.Telemetry.SampleRatio,
	}
}

// LoggingSettings returns the logger settings.
func (c *Config) LoggingSettings() logging.Config {
	return logging.Config{Level: c.Logging.Level, Pretty: c.Logging.Pretty}
}
