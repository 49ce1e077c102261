package probecmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/version"
)

const shutdownTimeout = 5 * time.Second

// NewCmd creates the anyprobe root command.
func NewCmd(ctx context.Context) *cobra.Command {
	var configPath string
	c := &cobra.Command{
		Use:          "anyprobe",
		Short:        "anyprobe asks whether any number in a range exceeds a threshold",
		SilenceUsage: true,
	}
	c.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (default: ./config.yml or ./cmd/anyprobe/config.yml)")

	for _, child := range []*cobra.Command{
		newRunCmd(ctx, &configPath),
		newBatchCmd(ctx, &configPath),
		newVersionCmd(),
	} {
		c.AddCommand(child)
	}
	return c
}

// probeFlags are the range flags shared by run and batch. Only flags the
// user actually set override the loaded configuration.
type probeFlags struct {
	start       int
	count       int
	async       bool
	timeout     time.Duration
	parallelism int
}

func (f *probeFlags) register(c *cobra.Command) {
	c.Flags().IntVar(&f.start, "start", 1, "first number of the range")
	c.Flags().IntVar(&f.count, "count", 10, "how many numbers to scan")
	c.Flags().BoolVar(&f.async, "async", false, "emit the range from a background goroutine")
	c.Flags().DurationVar(&f.timeout, "timeout", 5*time.Second, "give up after this long")
}

func (f *probeFlags) apply(c *cobra.Command, cfg *Config) {
	flags := c.Flags()
	if flags.Changed("start") {
		cfg.Probe.Start = f.start
	}
	if flags.Changed("count") {
		cfg.Probe.Count = f.count
	}
	if flags.Changed("async") {
		cfg.Probe.Async = f.async
	}
	if flags.Changed("timeout") {
		cfg.Probe.Timeout = f.timeout
	}
	if flags.Lookup("parallelism") != nil && flags.Changed("parallelism") {
		cfg.Probe.Parallelism = f.parallelism
	}
}

// session is everything a probe command needs after setup.
type session struct {
	cfg      *Config
	log      *logger.Logger
	prober   *Prober
	shutdown func(context.Context)
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.shutdown(ctx)
}

// setup loads configuration, applies flag overrides, initialises logging
// and telemetry, and builds the Prober.
func setup(ctx context.Context, c *cobra.Command, configPath string, flags *probeFlags, extra ...func(*Config)) (*session, error) {
	overrides := append([]func(*Config){func(cfg *Config) { flags.apply(c, cfg) }}, extra...)
	cfg, err := LoadConfig(configPath, overrides...)
	if err != nil {
		return nil, err
	}

	logger.Init(&cfg.Logging)
	log := logger.WithComponent(serviceName)
	log.Debug("configuration loaded", logger.Fields(
		"environment", cfg.Environment,
		"probe", cfg.Probe,
		"telemetry", cfg.Telemetry.Enabled,
	))
	log.Debug("build", version.Get().Fields())

	opts, shutdown, err := initTelemetry(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:      cfg,
		log:      log,
		prober:   NewProber(cfg.Probe, log, opts...),
		shutdown: shutdown,
	}, nil
}
