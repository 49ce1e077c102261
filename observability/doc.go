// Package observability provides OpenTelemetry tracing and metrics for
// stream operators.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("anyprobe"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("anyprobe"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewStreamMetrics(observability.Meter("streamkit"))
//	metrics.RecordOutcome(ctx, "any", observability.OutcomeMatched, elapsed)
//
// A nil *StreamMetrics is valid and records nothing.
package observability
