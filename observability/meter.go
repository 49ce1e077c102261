package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/streamkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it globally.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Outcome values recorded on stream.outcomes.
const (
	OutcomeMatched   = "matched"
	OutcomeNoMatch   = "no_match"
	OutcomeErrored   = "errored"
	OutcomeCancelled = "cancelled"
)

// StreamMetrics holds the instruments stream operators record into.
type StreamMetrics struct {
	subscriptions metric.Int64Counter
	evaluations   metric.Int64Counter
	outcomes      metric.Int64Counter
	dropped       metric.Int64Counter
	duration      metric.Float64Histogram
}

// NewStreamMetrics creates stream instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	subscriptions, err := meter.Int64Counter("stream.subscriptions",
		metric.WithDescription("Subscriptions started per operator"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.subscriptions counter: %w", err)
	}

	evaluations, err := meter.Int64Counter("stream.evaluations",
		metric.WithDescription("Predicate evaluations per operator"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.evaluations counter: %w", err)
	}

	outcomes, err := meter.Int64Counter("stream.outcomes",
		metric.WithDescription("Terminal outcomes by operator and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.outcomes counter: %w", err)
	}

	dropped, err := meter.Int64Counter("stream.dropped",
		metric.WithDescription("Signals dropped after a subscription terminated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.dropped counter: %w", err)
	}

	duration, err := meter.Float64Histogram("stream.duration",
		metric.WithDescription("Time from subscribe to terminal outcome in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.duration histogram: %w", err)
	}

	return &StreamMetrics{
		subscriptions: subscriptions,
		evaluations:   evaluations,
		outcomes:      outcomes,
		dropped:       dropped,
		duration:      duration,
	}, nil
}

// RecordSubscribe records a new subscription.
func (m *StreamMetrics) RecordSubscribe(ctx context.Context, operator string) {
	if m == nil {
		return
	}
	m.subscriptions.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOperator, operator)))
}

// RecordEvaluation records one predicate evaluation.
func (m *StreamMetrics) RecordEvaluation(ctx context.Context, operator string) {
	if m == nil {
		return
	}
	m.evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOperator, operator)))
}

// RecordOutcome records the terminal outcome of a subscription.
func (m *StreamMetrics) RecordOutcome(ctx context.Context, operator, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrOperator, operator),
		attribute.String(AttrOutcome, outcome),
	)
	m.outcomes.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordDropped records a signal that arrived after termination.
func (m *StreamMetrics) RecordDropped(ctx context.Context, operator, signal string) {
	if m == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperator, operator),
		attribute.String(AttrSignal, signal),
	))
}
