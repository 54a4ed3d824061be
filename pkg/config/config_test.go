package config

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromFile(t *testing.T) {
	configContent := `
server:
  address: ":9443"
  read_timeout: 5s
  tls:
    enabled: true
    cert_file: "/path/to/cert.pem"
    key_file: "/path/to/key.pem"
    min_version: "1.3"

parser:
  max_input_bytes: 1048576
  max_lines: 5000
  charset: "ISO-8859-1"
  tables_file: "tables.yaml"

rate_limit:
  enabled: true
  requests_per_second: 10
  burst: 20

batch:
  concurrency: 4

telemetry:
  otlp_endpoint: "localhost:4317"
  insecure: true

logging:
  level: "DEBUG"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Address != ":9443" {
		t.Errorf("Expected address ':9443', got %q", cfg.Server.Address)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Expected read_timeout 5s, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("Expected default write_timeout 10s, got %s", cfg.Server.WriteTimeout)
	}
	if cfg.Server.TLS == nil || cfg.Server.TLS.ServerTLS().MinVersion != tls.VersionTLS13 {
		t.Error("Expected TLS 1.3 listener settings")
	}
	if cfg.Parser.MaxInputBytes != 1<<20 || cfg.Parser.MaxLines != 5000 {
		t.Errorf("Unexpected parser limits: %+v", cfg.Parser)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerSecond != 10 || cfg.RateLimit.Burst != 20 {
		t.Errorf("Unexpected rate limit: %+v", cfg.RateLimit)
	}
	if cfg.Batch.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.Batch.Concurrency)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level normalized to 'debug', got %q", cfg.Logging.Level)
	}

	opts, err := cfg.ParserOptions()
	if err != nil {
		t.Fatalf("ParserOptions failed: %v", err)
	}
	if len(opts) != 4 {
		t.Errorf("Expected 4 parser options with a charset, got %d", len(opts))
	}

	ts := cfg.TelemetrySettings()
	if ts.Endpoint != "localhost:4317" || !ts.Insecure || ts.ServiceName != "polis-whois" {
		t.Errorf("Unexpected telemetry settings: %+v", ts)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Address != ":8043" {
		t.Errorf("Expected default address, got %q", cfg.Server.Address)
	}
	if cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting to be off by default")
	}
	if cfg.Server.TLS != nil {
		t.Error("Expected no TLS by default")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectedErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name: "TLS without cert",
			mutate: func(c *Config) {
				c.Server.TLS = &TLSConfig{Enabled: true}
			},
			expectedErr: "required field 'cert_file' is missing",
		},
		{
			name: "TLS with unsupported version",
			mutate: func(c *Config) {
				c.Server.TLS = &TLSConfig{Enabled: true, CertFile: "c.pem", KeyFile: "k.pem", MinVersion: "1.0"}
			},
			expectedErr: "unsupported TLS version",
		},
		{
			name: "negative input cap",
			mutate: func(c *Config) {
				c.Parser.MaxInputBytes = -1
			},
			expectedErr: "parser.max_input_bytes",
		},
		{
			name: "sample ratio above one",
			mutate: func(c *Config) {
				c.Telemetry.SampleRatio = 1.5
			},
			expectedErr: "telemetry.sample_ratio",
		},
		{
			name: "unknown charset",
			mutate: func(c *Config) {
				c.Parser.Charset = "no-such-charset"
			},
			expectedErr: "parser.charset",
		},
		{
			name: "rate limit without burst",
			mutate: func(c *Config) {
				c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 5}
			},
			expectedErr: "rate_limit.burst",
		},
		{
			name: "invalid log level",
			mutate: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			expectedErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectedErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.expectedErr)
			}
			if !strings.Contains(err.Error(), tt.expectedErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.expectedErr)
			}
		})
	}
}

func TestBatchConcurrencyDefaultsToOne(t *testing.T) {
	cfg := Default()
	cfg.Batch.Concurrency = 0
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Batch.Concurrency != 1 {
		t.Errorf("Expected concurrency 1, got %d", cfg.Batch.Concurrency)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("WHOIS_LISTEN_ADDR", ":7000")
	t.Setenv("WHOIS_MAX_LINES", "42")
	t.Setenv("WHOIS_RATE_LIMIT_ENABLED", "true")
	t.Setenv("WHOIS_RATE_LIMIT_RPS", "2.5")
	t.Setenv("WHOIS_RATE_LIMIT_BURST", "5")
	t.Setenv("WHOIS_LOG_LEVEL", "warn")
	t.Setenv("WHOIS_TLS_CERT_FILE", "/env/cert.pem")
	t.Setenv("WHOIS_TLS_KEY_FILE", "/env/key.pem")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Address != ":7000" {
		t.Errorf("Expected address from environment, got %q", cfg.Server.Address)
	}
	if cfg.Parser.MaxLines != 42 {
		t.Errorf("Expected max_lines 42, got %d", cfg.Parser.MaxLines)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerSecond != 2.5 || cfg.RateLimit.Burst != 5 {
		t.Errorf("Unexpected rate limit: %+v", cfg.RateLimit)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected level 'warn', got %q", cfg.Logging.Level)
	}
	if cfg.Server.TLS == nil || !cfg.Server.TLS.Enabled || cfg.Server.TLS.KeyFile != "/env/key.pem" {
		t.Errorf("Expected TLS from environment, got %+v", cfg.Server.TLS)
	}
}

func TestEnvironmentOverrides_BadNumber(t *testing.T) {
	t.Setenv("WHOIS_MAX_INPUT_BYTES", "lots")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "WHOIS_MAX_INPUT_BYTES") {
		t.Fatalf("Expected error naming the variable, got %v", err)
	}
}
