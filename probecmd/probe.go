package probecmd

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/stream"
)

// Result is the answer for one threshold.
type Result struct {
	Above   int           `json:"above"`
	Found   bool          `json:"found"`
	Elapsed time.Duration `json:"elapsed"`
}

// Prober asks whether any integer in a configured range exceeds a threshold.
type Prober struct {
	settings ProbeSettings
	opts     []stream.Option
	log      *logger.Logger
}

// NewProber creates a Prober. opts are passed to every Any operator it builds.
func NewProber(settings ProbeSettings, log *logger.Logger, opts ...stream.Option) *Prober {
	if log == nil {
		log = logger.NewNop()
	}
	return &Prober{settings: settings, opts: opts, log: log}
}

// Run probes a single threshold.
func (p *Prober) Run(ctx context.Context, above int) (Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanProbeRun,
		trace.WithAttributes(attribute.Int("probe.above", above)))
	defer span.End()

	start := time.Now()
	opts := append([]stream.Option{stream.WithContext(ctx)}, p.opts...)
	anyAbove, err := stream.NewAny[int](p.source(), stream.Match(func(n int) bool { return n > above }), opts...)
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.settings.Timeout)
	defer cancel()
	found, err := stream.Await[bool](ctx, anyAbove)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errors.Timeout("probe").WithCause(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	res := Result{Above: above, Found: found, Elapsed: time.Since(start)}
	span.SetAttributes(attribute.Bool(observability.AttrResult, found))
	p.log.Info("probe finished", logger.Fields(
		"above", above,
		logger.FieldResult, found,
		logger.FieldDuration, res.Elapsed.Milliseconds(),
	))
	return res, nil
}

// RunBatch probes every threshold concurrently. Results keep the input
// order. The first failure cancels the remaining probes.
func (p *Prober) RunBatch(ctx context.Context, thresholds []int) ([]Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	if p.settings.Parallelism > 0 {
		g.SetLimit(p.settings.Parallelism)
	}

	results := make([]Result, len(thresholds))
	for i, above := range thresholds {
		i, above := i, above
		g.Go(func() error {
			res, err := p.Run(gctx, above)
			if err != nil {
				return fmt.Errorf("threshold %d: %w", above, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Prober) source() stream.Publisher[int] {
	start, count := p.settings.Start, p.settings.Count
	if !p.settings.Async {
		return stream.Range(start, count)
	}
	return stream.FromIteratorFunc(func(context.Context) stream.Iterator[int] {
		next, end := start, start+count
		return stream.IteratorFunc[int](func(ctx context.Context) (int, bool, error) {
			if err := ctx.Err(); err != nil {
				return 0, false, err
			}
			if next >= end {
				return 0, false, nil
			}
			n := next
			next++
			return n, true, nil
		})
	})
}
