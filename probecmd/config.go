package probecmd

import (
	"time"

	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/validation"
	"github.com/kbukum/streamkit/version"
)

const (
	serviceName = "anyprobe"
	envPrefix   = "ANYPROBE"
)

// Config is the anyprobe configuration, loaded from config.yml, .env and
// ANYPROBE_* environment variables, then overridden by flags.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Probe                ProbeSettings     `yaml:"probe" mapstructure:"probe"`
	Telemetry            TelemetrySettings `yaml:"telemetry" mapstructure:"telemetry"`
}

// ProbeSettings describe the integer range to scan.
type ProbeSettings struct {
	Start       int           `yaml:"start" mapstructure:"start"`
	Count       int           `yaml:"count" mapstructure:"count" validate:"gte=0"`
	Above       int           `yaml:"above" mapstructure:"above"`
	Async       bool          `yaml:"async" mapstructure:"async"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	Parallelism int           `yaml:"parallelism" mapstructure:"parallelism" validate:"gte=0"`
	Thresholds  []int         `yaml:"thresholds" mapstructure:"thresholds"`
}

// TelemetrySettings control OTLP export of probe spans and stream metrics.
type TelemetrySettings struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	ExportInterval time.Duration `yaml:"export_interval" mapstructure:"export_interval" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	var cfg Config
	cfg.Name = serviceName
	cfg.Version = version.Get().Short()
	cfg.Logging.Level = "info"
	cfg.Logging.Output = "stderr"
	cfg.Probe = ProbeSettings{Start: 1, Count: 10, Above: 5, Timeout: 5 * time.Second}
	cfg.Telemetry = TelemetrySettings{
		Endpoint:       "localhost:4318",
		Insecure:       true,
		SampleRate:     1.0,
		ExportInterval: 15 * time.Second,
	}
	return cfg
}

// ApplyDefaults fills anything loading left empty.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = 5 * time.Second
	}
}

// Validate checks the base service fields, then the struct tags.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

// LoadConfig loads the configuration, applies overrides in order, then
// defaults and validates the result. An empty path falls back to config.yml
// discovery.
func LoadConfig(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := DefaultConfig()
	opts := []config.LoaderOption{config.WithEnvPrefix(envPrefix)}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
