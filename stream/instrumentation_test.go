package stream

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
)

func TestAny_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := observability.NewStreamMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := &manualSource[int]{signals: func(s Subscriber[int]) {
		s.OnNext(1)
		s.OnNext(2)
		s.OnNext(3)
		s.OnNext(4)
	}}
	p, _ := NewAny[int](src, Match(func(n int) bool { return n == 3 }), WithMetrics(metrics))
	rec := newRecorder[bool](1)
	p.Subscribe(rec)
	assertResult(t, rec.wait(t), true)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	sums := map[string]int64{}
	var outcome, operator string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			data, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range data.DataPoints {
				sums[m.Name] += dp.Value
				if m.Name == "stream.outcomes" {
					if v, ok := dp.Attributes.Value(attribute.Key(observability.AttrOutcome)); ok {
						outcome = v.AsString()
					}
					if v, ok := dp.Attributes.Value(attribute.Key(observability.AttrOperator)); ok {
						operator = v.AsString()
					}
				}
			}
		}
	}

	want := map[string]int64{
		"stream.subscriptions": 1,
		"stream.evaluations":   3,
		"stream.outcomes":      1,
		"stream.dropped":       1,
	}
	for name, v := range want {
		if sums[name] != v {
			t.Errorf("%s = %d, want %d", name, sums[name], v)
		}
	}
	if outcome != observability.OutcomeMatched {
		t.Errorf("expected outcome %q, got %q", observability.OutcomeMatched, outcome)
	}
	if operator != operatorAny {
		t.Errorf("expected operator %q, got %q", operatorAny, operator)
	}
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestAny_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	t.Run("no match", func(t *testing.T) {
		p, _ := HasElement(Range(1, 3), 9, WithTracer(tracer))
		rec := newRecorder[bool](1)
		p.Subscribe(rec)
		assertResult(t, rec.wait(t), false)

		spans := recorder.Ended()
		if len(spans) != 1 {
			t.Fatalf("expected 1 ended span, got %d", len(spans))
		}
		span := spans[0]
		if span.Name() != observability.SpanStreamSubscribe {
			t.Errorf("expected span %q, got %q", observability.SpanStreamSubscribe, span.Name())
		}
		if v, ok := spanAttr(span, observability.AttrOutcome); !ok || v.AsString() != observability.OutcomeNoMatch {
			t.Errorf("expected outcome no_match, got %v", v.Emit())
		}
		if v, ok := spanAttr(span, observability.AttrResult); !ok || v.AsBool() {
			t.Errorf("expected result=false, got %v", v.Emit())
		}
		if v, ok := spanAttr(span, observability.AttrOperator); !ok || v.AsString() != operatorHasElement {
			t.Errorf("expected operator has_element, got %v", v.Emit())
		}
		if _, ok := spanAttr(span, observability.AttrSubscriptionID); !ok {
			t.Error("expected a subscription id attribute")
		}
	})

	t.Run("errored", func(t *testing.T) {
		p, _ := NewAny[int](Error[int](fmt.Errorf("forced failure")), Match(func(int) bool { return true }),
			WithTracer(tracer))
		rec := newRecorder[bool](1)
		p.Subscribe(rec)
		rec.wait(t)

		spans := recorder.Ended()
		span := spans[len(spans)-1]
		if span.Status().Code != codes.Error {
			t.Errorf("expected error status, got %v", span.Status().Code)
		}
		if span.Status().Description != "forced failure" {
			t.Errorf("expected status description, got %q", span.Status().Description)
		}
	})
}

func TestAny_CancelledResultIsNotReported(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := observability.NewStreamMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spans := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("test")

	p, _ := NewAny[int](Range(1, 5), Match(func(n int) bool { return n == 2 }),
		WithMetrics(metrics), WithTracer(tracer))
	rec := newRecorder[bool](0)
	p.Subscribe(rec)

	if n := len(spans.Ended()); n != 0 {
		t.Fatalf("expected the span to stay open while the result is held, got %d ended", n)
	}

	rec.cancel()
	rec.request(1)
	rec.cancel()

	if got := rec.snapshot(); len(got.values) != 0 || got.terminals() != 0 {
		t.Fatalf("expected no signals, got %+v", got)
	}

	ended := spans.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(ended))
	}
	if v, ok := spanAttr(ended[0], observability.AttrOutcome); !ok || v.AsString() != observability.OutcomeCancelled {
		t.Errorf("expected outcome cancelled, got %v", v.Emit())
	}
	if _, ok := spanAttr(ended[0], observability.AttrResult); ok {
		t.Error("expected no result attribute on a discarded result")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	outcomes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			data, ok := m.Data.(metricdata.Sum[int64])
			if !ok || m.Name != "stream.outcomes" {
				continue
			}
			for _, dp := range data.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key(observability.AttrOutcome))
				outcomes[v.AsString()] += dp.Value
			}
		}
	}
	if outcomes[observability.OutcomeCancelled] != 1 || outcomes[observability.OutcomeMatched] != 0 {
		t.Errorf("expected a single cancelled outcome, got %v", outcomes)
	}
}

func TestAny_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "debug", Format: "json", Writer: &buf}, "test")

	src := &manualSource[int]{signals: func(s Subscriber[int]) {
		s.OnNext(1)
		s.OnNext(2)
	}}
	p, _ := NewAny[int](src, Match(func(n int) bool { return n == 1 }), WithLogger(log))
	rec := newRecorder[bool](0)
	p.Subscribe(rec)
	rec.request(0)
	rec.request(1)
	assertResult(t, rec.snapshot(), true)

	out := buf.String()
	for _, want := range []string{
		"subscription terminated",
		"signal dropped after termination",
		"ignoring non-positive request",
		`"state":"matched"`,
		`"signal":"next"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestAny_InfoLevelSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Writer: &buf}, "test")

	p, _ := NewAny[int](Range(1, 3), Match(func(n int) bool { return n == 1 }), WithLogger(log))
	rec := newRecorder[bool](1)
	p.Subscribe(rec)
	assertResult(t, rec.wait(t), true)

	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %q", buf.String())
	}
}

func TestAny_WarnsOnDuplicateSubscribe(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "warn", Format: "json", Writer: &buf}, "test")

	p, _ := NewAny[int](&manualSource[int]{twice: true}, Match(func(int) bool { return true }), WithLogger(log))
	p.Subscribe(newRecorder[bool](1))

	out := buf.String()
	if !strings.Contains(out, "cancelling extra subscription") || !strings.Contains(out, "PROTOCOL_VIOLATION") {
		t.Errorf("expected a protocol violation warning, got %q", out)
	}
}
