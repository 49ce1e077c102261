package stream

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recorder is a Subscriber that records every signal it receives.
type recorder[T any] struct {
	initial int64
	onSub   func(s Subscription)

	mu          sync.Mutex
	sub         Subscription
	subscribes  int
	values      []T
	errs        []error
	completions int

	done     chan struct{}
	doneOnce sync.Once
}

func newRecorder[T any](initial int64) *recorder[T] {
	return &recorder[T]{initial: initial, done: make(chan struct{})}
}

func (r *recorder[T]) OnSubscribe(s Subscription) {
	r.mu.Lock()
	r.sub = s
	r.subscribes++
	r.mu.Unlock()
	if r.onSub != nil {
		r.onSub(s)
	}
	if r.initial > 0 {
		s.Request(r.initial)
	}
}

func (r *recorder[T]) OnNext(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
}

func (r *recorder[T]) OnComplete() {
	r.mu.Lock()
	r.completions++
	r.mu.Unlock()
	r.doneOnce.Do(func() { close(r.done) })
}

func (r *recorder[T]) request(n int64) { r.subscription().Request(n) }

func (r *recorder[T]) cancel() { r.subscription().Cancel() }

func (r *recorder[T]) subscription() Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub
}

type snapshot[T any] struct {
	values      []T
	errs        []error
	completions int
}

func (s snapshot[T]) terminals() int { return len(s.errs) + s.completions }

func (r *recorder[T]) snapshot() snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot[T]{
		values:      append([]T(nil), r.values...),
		errs:        append([]error(nil), r.errs...),
		completions: r.completions,
	}
}

func (r *recorder[T]) wait(t *testing.T) snapshot[T] {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a terminal signal")
	}
	return r.snapshot()
}

// assertResult checks for exactly one value followed by exactly one completion.
func assertResult(t *testing.T, got snapshot[bool], want bool) {
	t.Helper()
	if len(got.errs) != 0 {
		t.Fatalf("expected no error, got %v", got.errs)
	}
	if len(got.values) != 1 {
		t.Fatalf("expected exactly one value, got %v", got.values)
	}
	if got.values[0] != want {
		t.Errorf("expected %v, got %v", want, got.values[0])
	}
	if got.completions != 1 {
		t.Errorf("expected exactly one completion, got %d", got.completions)
	}
}

// tracked wraps a publisher and counts what passes through its subscription.
type tracked[T any] struct {
	src Publisher[T]

	subscribes atomic.Int64
	requests   atomic.Int64
	cancels    atomic.Int64
	emitted    atomic.Int64
	lastDemand atomic.Int64
}

func track[T any](src Publisher[T]) *tracked[T] { return &tracked[T]{src: src} }

func (p *tracked[T]) Subscribe(s Subscriber[T]) {
	p.subscribes.Add(1)
	p.src.Subscribe(&trackedSubscriber[T]{p: p, downstream: s})
}

type trackedSubscriber[T any] struct {
	p          *tracked[T]
	downstream Subscriber[T]
}

func (t *trackedSubscriber[T]) OnSubscribe(s Subscription) {
	t.downstream.OnSubscribe(&trackedSubscription[T]{p: t.p, inner: s})
}

func (t *trackedSubscriber[T]) OnNext(v T) {
	t.p.emitted.Add(1)
	t.downstream.OnNext(v)
}

func (t *trackedSubscriber[T]) OnError(err error) { t.downstream.OnError(err) }
func (t *trackedSubscriber[T]) OnComplete()       { t.downstream.OnComplete() }

type trackedSubscription[T any] struct {
	p     *tracked[T]
	inner Subscription
}

func (t *trackedSubscription[T]) Request(n int64) {
	t.p.requests.Add(1)
	t.p.lastDemand.Store(n)
	t.inner.Request(n)
}

func (t *trackedSubscription[T]) Cancel() {
	t.p.cancels.Add(1)
	t.inner.Cancel()
}

// countingPredicate counts how many values it was asked to test.
type countingPredicate[T any] struct {
	calls atomic.Int64
	fn    func(T) (bool, error)
}

func (c *countingPredicate[T]) Test(v T) (bool, error) {
	c.calls.Add(1)
	return c.fn(v)
}

// manualSource hands its subscriber a tracked no-op subscription and lets
// the test push signals by hand, regardless of demand or cancellation.
type manualSource[T any] struct {
	sub     Subscriber[T]
	token   *stubSubscription
	extra   *stubSubscription
	twice   bool
	signals func(s Subscriber[T])
}

func (m *manualSource[T]) Subscribe(s Subscriber[T]) {
	m.sub = s
	m.token = &stubSubscription{}
	s.OnSubscribe(m.token)
	if m.twice {
		m.extra = &stubSubscription{}
		s.OnSubscribe(m.extra)
	}
	if m.signals != nil {
		m.signals(s)
	}
}

type stubSubscription struct {
	requests   atomic.Int64
	lastDemand atomic.Int64
	cancels    atomic.Int64
}

func (s *stubSubscription) Request(n int64) {
	s.requests.Add(1)
	s.lastDemand.Store(n)
}

func (s *stubSubscription) Cancel() { s.cancels.Add(1) }
