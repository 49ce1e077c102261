package probecmd

import (
	"context"
	"fmt"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/stream"
)

const instrumentationName = "github.com/kbukum/streamkit/probecmd"

// initTelemetry starts the OTLP trace and metric pipelines when enabled and
// returns the stream options that feed them. The returned shutdown flushes
// both providers.
func initTelemetry(ctx context.Context, cfg *Config, log *logger.Logger) ([]stream.Option, func(context.Context), error) {
	if !cfg.Telemetry.Enabled {
		return nil, func(context.Context) {}, nil
	}

	tc := observability.DefaultTracerConfig(cfg.Name)
	tc.ServiceVersion = cfg.Version
	tc.Environment = cfg.Environment
	tc.Endpoint = cfg.Telemetry.Endpoint
	tc.Insecure = cfg.Telemetry.Insecure
	tc.SampleRate = cfg.Telemetry.SampleRate
	tp, err := observability.InitTracer(ctx, tc)
	if err != nil {
		return nil, nil, fmt.Errorf("init tracer: %w", err)
	}

	mc := observability.DefaultMeterConfig(cfg.Name)
	mc.ServiceVersion = cfg.Version
	mc.Environment = cfg.Environment
	mc.Endpoint = cfg.Telemetry.Endpoint
	mc.Insecure = cfg.Telemetry.Insecure
	if cfg.Telemetry.ExportInterval > 0 {
		mc.Interval = cfg.Telemetry.ExportInterval
	}
	mp, err := observability.InitMeter(ctx, mc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := observability.NewStreamMetrics(observability.Meter(instrumentationName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, fmt.Errorf("stream metrics: %w", err)
	}

	shutdown := func(ctx context.Context) {
		if err := mp.Shutdown(ctx); err != nil {
			log.Warn("meter shutdown failed", logger.ErrorFields("shutdown", err))
		}
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("tracer shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}
	opts := []stream.Option{
		stream.WithTracer(observability.Tracer(instrumentationName)),
		stream.WithMetrics(metrics),
	}
	return opts, shutdown, nil
}
