package stream

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
)

const (
	operatorAny        = "any"
	operatorHasElement = "has_element"
)

// AnyPublisher emits a single boolean: true once any source element
// satisfies the predicate, false if the source completes without a match.
// A source error or a predicate failure is forwarded instead of a value.
//
// Every call to Subscribe subscribes to the source anew.
type AnyPublisher[T any] struct {
	source    Publisher[T]
	predicate Predicate[T]
	opts      options
}

// NewAny builds the operator. source and predicate are required.
func NewAny[T any](source Publisher[T], predicate Predicate[T], opts ...Option) (*AnyPublisher[T], error) {
	if isNilPublisher(source) {
		return nil, errors.MissingField("source")
	}
	if isNilPredicate(predicate) {
		return nil, errors.MissingField("predicate")
	}
	return &AnyPublisher[T]{
		source:    source,
		predicate: predicate,
		opts:      newOptions(operatorAny, opts),
	}, nil
}

// HasElement emits true if the source contains value.
func HasElement[T comparable](source Publisher[T], value T, opts ...Option) (*AnyPublisher[T], error) {
	opts = append([]Option{WithName(operatorHasElement)}, opts...)
	return NewAny(source, Match(func(v T) bool { return v == value }), opts...)
}

// Subscribe starts a new subscription to the source on behalf of downstream.
func (p *AnyPublisher[T]) Subscribe(downstream Subscriber[bool]) {
	if downstream == nil {
		panic(errors.MissingField("subscriber"))
	}
	p.source.Subscribe(newAnySubscriber(downstream, p.predicate, &p.opts))
}

// anySubscriber sits between the source and the downstream subscriber. It is
// the source's Subscriber[T] and the downstream's Subscription.
type anySubscriber[T any] struct {
	downstream Subscriber[bool]
	predicate  Predicate[T]
	opts       *options
	log        *logger.Logger

	id    string
	start time.Time
	ctx   context.Context
	span  trace.Span

	upstream   Subscription
	subscribed atomic.Bool

	state terminalState

	// result and settled are written once by the Matched or NoMatch winner
	// before ready is set, and only read after ready is observed.
	result    bool
	settled   State
	ready     atomic.Bool
	requested atomic.Int64
	cancelled atomic.Bool
	// delivered guards the held result: it is either delivered or discarded.
	delivered atomic.Bool
}

func newAnySubscriber[T any](downstream Subscriber[bool], predicate Predicate[T], opts *options) *anySubscriber[T] {
	a := &anySubscriber[T]{
		downstream: downstream,
		predicate:  predicate,
		opts:       opts,
		id:         uuid.NewString(),
		start:      time.Now(),
		ctx:        opts.ctx,
	}
	a.log = opts.log
	if opts.tracer != nil {
		a.ctx, a.span = opts.tracer.Start(opts.ctx, observability.SpanStreamSubscribe,
			trace.WithAttributes(
				attribute.String(observability.AttrOperator, opts.name),
				attribute.String(observability.AttrSubscriptionID, a.id),
			))
	}
	opts.metrics.RecordSubscribe(a.ctx, opts.name)
	return a
}

// --- Subscriber[T], driven by the source ---

func (a *anySubscriber[T]) OnSubscribe(s Subscription) {
	if !a.subscribed.CompareAndSwap(false, true) {
		s.Cancel()
		a.log.WithError(errors.ProtocolViolation("OnSubscribe called more than once")).
			Warn("cancelling extra subscription",
				logger.Fields(logger.FieldSubscriptionID, a.id, logger.FieldOperator, a.opts.name))
		return
	}
	a.upstream = s
	a.downstream.OnSubscribe(a)
	// Downstream may have cancelled from inside its own OnSubscribe.
	if a.state.load() == StateActive {
		s.Request(Unbounded)
	}
}

func (a *anySubscriber[T]) OnNext(v T) {
	if a.state.load() != StateActive {
		a.drop(SignalNext, v)
		return
	}
	a.opts.metrics.RecordEvaluation(a.ctx, a.opts.name)

	matched, err := a.evaluate(v)
	if err != nil {
		if a.state.transition(StateErrored) {
			a.upstream.Cancel()
			a.terminate(StateErrored, err)
			a.downstream.OnError(err)
		}
		return
	}
	if matched && a.state.transition(StateMatched) {
		a.upstream.Cancel()
		a.settle(StateMatched, true)
	}
}

func (a *anySubscriber[T]) OnError(err error) {
	if a.state.transition(StateErrored) {
		a.terminate(StateErrored, err)
		a.downstream.OnError(err)
		return
	}
	a.drop(SignalError, err)
}

func (a *anySubscriber[T]) OnComplete() {
	if a.state.transition(StateNoMatch) {
		a.settle(StateNoMatch, false)
	}
}

// --- Subscription, driven by downstream ---

func (a *anySubscriber[T]) Request(n int64) {
	if n <= 0 {
		a.log.Warn("ignoring non-positive request",
			logger.Fields(logger.FieldSubscriptionID, a.id, logger.FieldOperator, a.opts.name, logger.FieldDemand, n))
		return
	}
	addCap(&a.requested, n)
	a.tryDeliver()
}

func (a *anySubscriber[T]) Cancel() {
	a.cancelled.Store(true)
	if a.state.transition(StateCancelled) {
		a.upstream.Cancel()
		a.terminate(StateCancelled, nil)
		return
	}
	if a.ready.Load() {
		a.discard()
	}
}

// --- internals ---

func (a *anySubscriber[T]) evaluate(v T) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.PredicatePanic(r)
		}
	}()
	return a.predicate.Test(v)
}

// settle publishes the result and delivers it if demand is already there.
// The outcome is recorded when the result is delivered or discarded.
func (a *anySubscriber[T]) settle(state State, result bool) {
	a.result = result
	a.settled = state
	a.ready.Store(true)
	a.tryDeliver()
}

// tryDeliver emits the result once both it and demand are present. Request,
// Cancel and settle each store their half before checking the other, so at
// least one of them observes both.
func (a *anySubscriber[T]) tryDeliver() {
	if !a.ready.Load() {
		return
	}
	if a.cancelled.Load() {
		a.discard()
		return
	}
	if a.requested.Load() < 1 || !a.delivered.CompareAndSwap(false, true) {
		return
	}
	a.terminate(a.settled, nil)
	a.downstream.OnNext(a.result)
	a.downstream.OnComplete()
}

// discard drops a held result that downstream cancelled before requesting.
func (a *anySubscriber[T]) discard() {
	if a.delivered.CompareAndSwap(false, true) {
		a.terminate(StateCancelled, nil)
	}
}

func (a *anySubscriber[T]) terminate(state State, err error) {
	elapsed := time.Since(a.start)
	outcome := state.outcome()
	a.opts.metrics.RecordOutcome(a.ctx, a.opts.name, outcome, elapsed)

	if a.span != nil {
		a.span.SetAttributes(attribute.String(observability.AttrOutcome, outcome))
		if state == StateMatched || state == StateNoMatch {
			a.span.SetAttributes(attribute.Bool(observability.AttrResult, state == StateMatched))
		}
		if err != nil {
			a.span.RecordError(err)
			a.span.SetStatus(codes.Error, err.Error())
		}
		a.span.End()
	}

	if a.log.DebugEnabled() {
		fields := logger.Fields(
			logger.FieldSubscriptionID, a.id,
			logger.FieldOperator, a.opts.name,
			logger.FieldState, state.String(),
			logger.FieldDuration, elapsed.Milliseconds(),
		)
		if err != nil {
			fields[logger.FieldError] = err.Error()
		}
		a.log.Debug("subscription terminated", fields)
	}
}

func (a *anySubscriber[T]) drop(signal Signal, value any) {
	a.opts.metrics.RecordDropped(a.ctx, a.opts.name, string(signal))
	if a.opts.onDropped != nil {
		a.opts.onDropped(signal, value)
	}
	if a.log.DebugEnabled() {
		a.log.Debug("signal dropped after termination", logger.Fields(
			logger.FieldSubscriptionID, a.id,
			logger.FieldOperator, a.opts.name,
			logger.FieldSignal, string(signal),
			logger.FieldState, a.state.load().String(),
		))
	}
}

func isNilPublisher[T any](p Publisher[T]) bool {
	if p == nil {
		return true
	}
	f, ok := p.(PublisherFunc[T])
	return ok && f == nil
}

func isNilPredicate[T any](p Predicate[T]) bool {
	if p == nil {
		return true
	}
	f, ok := p.(PredicateFunc[T])
	return ok && f == nil
}
