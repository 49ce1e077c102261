package stream

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
)

// DroppedFunc observes a signal that arrived after a subscription reached a
// terminal state. For SignalNext the value is the element, for SignalError
// it is the error.
type DroppedFunc func(signal Signal, value any)

// Option configures an operator.
type Option func(*options)

type options struct {
	name      string
	ctx       context.Context
	log       *logger.Logger
	metrics   *observability.StreamMetrics
	tracer    trace.Tracer
	onDropped DroppedFunc
}

// WithName overrides the operator name used in logs, metrics and spans.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithContext sets the parent context for spans and metric recordings.
// It does not bound the subscription's lifetime; use Cancel for that.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithLogger sets the logger. Defaults to the registered "stream.<name>"
// component logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records subscriptions, evaluations, outcomes and drops.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer opens one span per subscription, ended at the terminal transition.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithOnDropped registers a hook for signals discarded after termination.
func WithOnDropped(fn DroppedFunc) Option {
	return func(o *options) { o.onDropped = fn }
}

func newOptions(name string, opts []Option) options {
	o := options{name: name, ctx: context.Background()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.log == nil {
		o.log = logger.Get("stream." + o.name)
	}
	return o
}
