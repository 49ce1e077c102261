package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testSettings struct {
	Above    int  `yaml:"above" mapstructure:"above"`
	MaxItems int  `yaml:"max_items" mapstructure:"max_items"`
	Async    bool `yaml:"async" mapstructure:"async"`
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Probe         testSettings `yaml:"probe" mapstructure:"probe"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development with debug logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected logging level 'debug', got %q", cfg.Logging.Level)
		}
	})

	t.Run("production keeps debug false and info logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging level 'info', got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: anyprobe
environment: staging
logging:
  level: warn
  format: json
probe:
  above: 5
  max_items: 100
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("anyprobe", &cfg, WithConfigFile(configPath), WithEnvPrefix("NOPE_UNUSED")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "anyprobe" {
		t.Errorf("expected name 'anyprobe', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected logging level 'warn', got %q", cfg.Logging.Level)
	}
	if cfg.Probe.Above != 5 || cfg.Probe.MaxItems != 100 {
		t.Errorf("unexpected probe settings: %+v", cfg.Probe)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: anyprobe\nprobe:\n  above: 5\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("CFGTEST_PROBE_ABOVE", "9")
	t.Setenv("CFGTEST_PROBE_MAX_ITEMS", "42")
	t.Setenv("CFGTEST_PROBE_ASYNC", "true")

	var cfg testConfig
	if err := LoadConfig("anyprobe", &cfg, WithConfigFile(configPath), WithEnvPrefix("CFGTEST")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Probe.Above != 9 {
		t.Errorf("expected env to override above=9, got %d", cfg.Probe.Above)
	}
	if cfg.Probe.MaxItems != 42 {
		t.Errorf("expected max_items=42, got %d", cfg.Probe.MaxItems)
	}
	if !cfg.Probe.Async {
		t.Error("expected async=true from env")
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("ENVFILETEST_NAME=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("ENVFILETEST_NAME") })

	var cfg testConfig
	err := LoadConfig("anyprobe", &cfg,
		WithConfigFile(filepath.Join(dir, "missing.yml")),
		WithEnvFile(envPath),
		WithEnvPrefix("ENVFILETEST"),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "from-dotenv" {
		t.Errorf("expected name from .env, got %q", cfg.Name)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"), WithEnvPrefix("NOPE_UNUSED"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func TestLoadConfigDiscoversEnvFile(t *testing.T) {
	fs := &mockFS{files: map[string]bool{".env.anyprobe": true}}
	var cfg testConfig
	if err := LoadConfig("anyprobe", &cfg, WithFileSystem(fs), WithEnvPrefix("NOPE_UNUSED")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(fs.loaded) != 1 || fs.loaded[0] != ".env.anyprobe" {
		t.Errorf("expected .env.anyprobe to be loaded, got %v", fs.loaded)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"NAME", []string{"name"}},
		{"PROBE_ABOVE", []string{"probe_above", "probe.above"}},
		{"PROBE_MAX_ITEMS", []string{"probe_max_items", "probe.max.items", "probe.max_items"}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := envKeyVariants(tc.in)
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Errorf("envKeyVariants(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
