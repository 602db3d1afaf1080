package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"productform/internal/infrastructure/logger"
	"productform/internal/shared/validation"
	"productform/internal/submission/domain"
)

func TestLoadRuntimeConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PRODUCTFORM_API_BASE", "PRODUCTFORM_TRANSPORT", "PRODUCTFORM_PORT", "PRODUCTFORM_DB_PATH", "PRODUCTFORM_COLLECTOR_HOST"} {
		t.Setenv(key, "")
	}

	cfg := LoadRuntimeConfig(Flags{})

	if cfg.APIBase != domain.DefaultBaseURL {
		t.Errorf("expected default api base, got %q", cfg.APIBase)
	}
	if cfg.Transport != "fetch" {
		t.Errorf("expected fetch transport, got %q", cfg.Transport)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.DBPath != "submissions.db" {
		t.Errorf("expected submissions.db, got %q", cfg.DBPath)
	}
	if cfg.CollectorHost != "" {
		t.Errorf("expected tracing off by default, got %q", cfg.CollectorHost)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestLoadRuntimeConfig_Precedence(t *testing.T) {
	t.Setenv("PRODUCTFORM_PORT", "9090")
	t.Setenv("PRODUCTFORM_TRANSPORT", "client")

	cfg := LoadRuntimeConfig(Flags{Port: "7070"})

	if cfg.Port != "7070" {
		t.Errorf("flag should win over env, got %q", cfg.Port)
	}
	if cfg.Transport != "client" {
		t.Errorf("env should win over default, got %q", cfg.Transport)
	}
}

func TestRuntimeConfig_Valid(t *testing.T) {
	tests := []struct {
		name      string
		cfg       RuntimeConfig
		wantField string
	}{
		{
			name:      "bad api base",
			cfg:       RuntimeConfig{APIBase: "ftp://example.com", Transport: "fetch", Port: "8080", DBPath: "x.db"},
			wantField: "api-base",
		},
		{
			name:      "unknown transport",
			cfg:       RuntimeConfig{APIBase: "http://example.com", Transport: "axios", Port: "8080", DBPath: "x.db"},
			wantField: "transport",
		},
		{
			name:      "port not a number",
			cfg:       RuntimeConfig{APIBase: "http://example.com", Transport: "client", Port: "http", DBPath: "x.db"},
			wantField: "port",
		},
		{
			name:      "port out of range",
			cfg:       RuntimeConfig{APIBase: "http://example.com", Transport: "client", Port: "70000", DBPath: "x.db"},
			wantField: "port",
		},
		{
			name:      "missing db path",
			cfg:       RuntimeConfig{APIBase: "http://example.com", Transport: "client", Port: "8080"},
			wantField: "db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()

			var valErr *validation.ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := valErr.Problems[tt.wantField]; !ok {
				t.Errorf("expected problem for %q, got %v", tt.wantField, valErr.Problems)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("PRODUCTFORM_TEST_ONLY_KEY=from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("PRODUCTFORM_TEST_ONLY_KEY") })

	l := logger.DefaultLogger()

	if LoadEnvFile(l, filepath.Join(dir, "missing.env")) {
		t.Error("expected missing file to report false")
	}
	if !LoadEnvFile(l, envFile) {
		t.Fatal("expected env file to load")
	}
	if got := os.Getenv("PRODUCTFORM_TEST_ONLY_KEY"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
}
