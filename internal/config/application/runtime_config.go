package application

import (
	"context"
	"os"
	"strconv"
	"strings"

	"productform/internal/shared/validation"
	"productform/internal/submission/domain"
)

// RuntimeConfig holds all runtime configuration from CLI flags, environment variables, and .env file
type RuntimeConfig struct {
	// Remote backend
	APIBase   string
	Transport string

	// Local web UI
	Port string

	// Logging Configuration
	LogLevel  string
	LogFormat string
	LogOutput string

	// Submission history database
	DBPath string

	// OTLP collector host, tracing is off when empty
	CollectorHost string
}

// Flags carries the raw CLI flag values; empty strings mean "not set"
type Flags struct {
	APIBase       string
	Transport     string
	Port          string
	LogLevel      string
	LogFormat     string
	LogOutput     string
	DBPath        string
	CollectorHost string
}

// LoadRuntimeConfig loads configuration with precedence: CLI flags > env vars > .env file > defaults
func LoadRuntimeConfig(f Flags) *RuntimeConfig {
	return &RuntimeConfig{
		APIBase:       getValue(f.APIBase, "PRODUCTFORM_API_BASE", domain.DefaultBaseURL),
		Transport:     getValue(f.Transport, "PRODUCTFORM_TRANSPORT", string(domain.VariantFetch)),
		Port:          getValue(f.Port, "PRODUCTFORM_PORT", "8080"),
		LogLevel:      getValue(f.LogLevel, "PRODUCTFORM_LOG_LEVEL", "INFO"),
		LogFormat:     getValue(f.LogFormat, "PRODUCTFORM_LOG_FORMAT", "text"),
		LogOutput:     getValue(f.LogOutput, "PRODUCTFORM_LOG_OUTPUT", "stderr"),
		DBPath:        getValue(f.DBPath, "PRODUCTFORM_DB_PATH", "submissions.db"),
		CollectorHost: getValue(f.CollectorHost, "PRODUCTFORM_COLLECTOR_HOST", ""),
	}
}

// getValue returns the first non-empty value from CLI flag, env var, or default
func getValue(cliValue, envKey, defaultValue string) string {
	if cliValue != "" {
		return cliValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// Valid checks the loaded values
func (c *RuntimeConfig) Valid(ctx context.Context) map[string]string {
	problems := make(map[string]string, 4)

	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		problems["api-base"] = "api base must start with http:// or https://"
	}

	if !domain.Variant(c.Transport).Valid() {
		problems["transport"] = "unknown transport variant: " + c.Transport
	}

	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		problems["port"] = "port must be a number between 1 and 65535"
	}

	if c.DBPath == "" {
		problems["db"] = "database path is required"
	}

	return problems
}

// Validate returns a ValidationError when Valid reports problems
func (c *RuntimeConfig) Validate() error {
	return validation.Check(context.TODO(), c, "config")
}
