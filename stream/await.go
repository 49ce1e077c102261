package stream

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
)

// result is an internal wrapper for a terminal outcome.
type result[T any] struct {
	val T
	ok  bool
	err error
}

// Await subscribes to p, requests one value and blocks until it arrives.
// It returns EMPTY_STREAM if p completes without a value, the stream's error
// if it fails, or ctx.Err() after cancelling the subscription if ctx ends
// first.
func Await[T any](ctx context.Context, p Publisher[T]) (T, error) {
	var zero T
	if isNilPublisher(p) {
		return zero, errors.MissingField("publisher")
	}
	s := &awaitSubscriber[T]{out: make(chan result[T], 1)}
	p.Subscribe(s)

	select {
	case r := <-s.out:
		if r.err != nil {
			return zero, r.err
		}
		if !r.ok {
			return zero, errors.EmptyStream()
		}
		return r.val, nil
	case <-ctx.Done():
		s.upstream.cancel()
		return zero, ctx.Err()
	}
}

// Collect subscribes to p with unbounded demand and returns every value once
// p completes. On a stream error the values received so far are returned
// with it.
func Collect[T any](ctx context.Context, p Publisher[T]) ([]T, error) {
	if isNilPublisher(p) {
		return nil, errors.MissingField("publisher")
	}
	s := &collectSubscriber[T]{out: make(chan error, 1)}
	p.Subscribe(s)

	select {
	case err := <-s.out:
		return s.values, err
	case <-ctx.Done():
		s.upstream.cancel()
		return nil, ctx.Err()
	}
}

// upstreamHolder keeps the subscription a blocking consumer may need to
// cancel from another goroutine.
type upstreamHolder struct {
	sub       atomic.Pointer[Subscription]
	cancelled atomic.Bool
}

// set records s and reports whether the consumer should proceed with it.
func (h *upstreamHolder) set(s Subscription) bool {
	if !h.sub.CompareAndSwap(nil, &s) {
		s.Cancel()
		return false
	}
	if h.cancelled.Load() {
		s.Cancel()
		return false
	}
	return true
}

func (h *upstreamHolder) cancel() {
	if h.cancelled.CompareAndSwap(false, true) {
		if s := h.sub.Load(); s != nil {
			(*s).Cancel()
		}
	}
}

type awaitSubscriber[T any] struct {
	upstream upstreamHolder
	done     atomic.Bool
	out      chan result[T]
}

func (a *awaitSubscriber[T]) OnSubscribe(s Subscription) {
	if a.upstream.set(s) {
		s.Request(1)
	}
}

func (a *awaitSubscriber[T]) OnNext(v T) {
	if a.finish(result[T]{val: v, ok: true}) {
		a.upstream.cancel()
	}
}

func (a *awaitSubscriber[T]) OnError(err error) { a.finish(result[T]{err: err}) }

func (a *awaitSubscriber[T]) OnComplete() { a.finish(result[T]{}) }

func (a *awaitSubscriber[T]) finish(r result[T]) bool {
	if !a.done.CompareAndSwap(false, true) {
		return false
	}
	a.out <- r
	return true
}

type collectSubscriber[T any] struct {
	upstream upstreamHolder
	done     atomic.Bool
	values   []T
	out      chan error
}

func (c *collectSubscriber[T]) OnSubscribe(s Subscription) {
	if c.upstream.set(s) {
		s.Request(Unbounded)
	}
}

func (c *collectSubscriber[T]) OnNext(v T) {
	if !c.done.Load() {
		c.values = append(c.values, v)
	}
}

func (c *collectSubscriber[T]) OnError(err error) {
	if c.done.CompareAndSwap(false, true) {
		c.out <- err
	}
}

func (c *collectSubscriber[T]) OnComplete() {
	if c.done.CompareAndSwap(false, true) {
		c.out <- nil
	}
}
