package domain

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Defaults applied before the YAML file and the environment are read.
const (
	DefaultTransportType     = "http"
	DefaultHTTPHost          = "0.0.0.0"
	DefaultHTTPPort          = 8003
	DefaultRAWGBaseURL       = "https://api.rawg.io/api"
	DefaultTimeoutSeconds    = 10
	DefaultMinIntervalMillis = 1000
	DefaultLogLevel          = "info"
	DefaultInteractionLog    = "logs/rawg_mcp_log.jsonl"
)

// Config represents the server configuration.
// It is loaded from an optional YAML file and then overlaid with environment
// variables.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	RAWG      RAWGConfig      `yaml:"rawg"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TransportConfig defines transport settings.
// Specifies whether to use stdio or HTTP transport.
type TransportConfig struct {
	Type string     `yaml:"type" env:"RAWG_MCP_TRANSPORT"` // "stdio" or "http"
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `yaml:"host" env:"RAWG_MCP_HOST"`
	Port int    `yaml:"port" env:"RAWG_MCP_PORT"`
}

// RAWGConfig defines how the catalog API is reached.
type RAWGConfig struct {
	BaseURL           string `yaml:"base_url" env:"RAWG_BASE_URL"`
	APIKey            string `yaml:"api_key" env:"RAWG_API_KEY"`
	TimeoutSeconds    int    `yaml:"timeout_seconds" env:"RAWG_TIMEOUT_SECONDS"`
	MinIntervalMillis int    `yaml:"min_interval_ms" env:"RAWG_MIN_INTERVAL_MS"`
}

// Timeout returns the per-request timeout.
func (c RAWGConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MinInterval returns the minimum spacing between upstream calls.
func (c RAWGConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMillis) * time.Millisecond
}

// LoggingConfig defines operational and interaction logging.
type LoggingConfig struct {
	Level          string `yaml:"level" env:"RAWG_MCP_LOG_LEVEL"`
	InteractionLog string `yaml:"interaction_log" env:"RAWG_MCP_INTERACTION_LOG"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Type: DefaultTransportType,
			HTTP: HTTPConfig{
				Host: DefaultHTTPHost,
				Port: DefaultHTTPPort,
			},
		},
		RAWG: RAWGConfig{
			BaseURL:           DefaultRAWGBaseURL,
			TimeoutSeconds:    DefaultTimeoutSeconds,
			MinIntervalMillis: DefaultMinIntervalMillis,
		},
		Logging: LoggingConfig{
			Level:          DefaultLogLevel,
			InteractionLog: DefaultInteractionLog,
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and the environment, then validates it.
// A failure is a *CatalogError of kind KindConfiguration.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, NewConfigurationError(fmt.Sprintf("configuration file not found: %s", path), nil)
			}
			return nil, NewConfigurationError("failed to read configuration file", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, NewConfigurationError("invalid YAML syntax in configuration file", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, NewConfigurationError("invalid environment configuration", err)
	}

	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("configuration validation failed", err)
	}

	return config, nil
}

// Validate checks the configuration for completeness and correctness.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.validateRAWG(); err != nil {
		errors = append(errors, err.Error())
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.Logging.Level))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateTransport validates the transport configuration.
func (c *Config) validateTransport() error {
	var errors []string

	// Check transport type is specified
	if c.Transport.Type == "" {
		errors = append(errors, "transport type is required")
	} else if c.Transport.Type != "stdio" && c.Transport.Type != "http" {
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	// If HTTP transport, validate HTTP configuration
	if c.Transport.Type == "http" {
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// validateRAWG validates the catalog API settings.
func (c *Config) validateRAWG() error {
	var errors []string

	if strings.TrimSpace(c.RAWG.APIKey) == "" {
		errors = append(errors, "RAWG API key is required (set RAWG_API_KEY)")
	}

	if c.RAWG.BaseURL == "" {
		errors = append(errors, "RAWG base_url is required")
	} else {
		parsedURL, err := url.Parse(c.RAWG.BaseURL)
		if err != nil {
			errors = append(errors, fmt.Sprintf("RAWG base_url is invalid: %v", err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, "RAWG base_url must use http or https scheme")
		} else if parsedURL.Host == "" {
			errors = append(errors, "RAWG base_url must include a host")
		}
	}

	if c.RAWG.TimeoutSeconds <= 0 {
		errors = append(errors, fmt.Sprintf("invalid timeout_seconds %d: must be positive", c.RAWG.TimeoutSeconds))
	}

	if c.RAWG.MinIntervalMillis < 0 {
		errors = append(errors, fmt.Sprintf("invalid min_interval_ms %d: must not be negative", c.RAWG.MinIntervalMillis))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}
