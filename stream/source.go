package stream

import (
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
)

// FromSlice emits the items of a slice in order, then completes. Emission
// happens on the goroutine that grants demand.
func FromSlice[T any](items []T) Publisher[T] {
	return &indexedPublisher[T]{
		count: len(items),
		at:    func(i int) T { return items[i] },
	}
}

// Range emits count consecutive integers starting at start.
func Range(start, count int) Publisher[int] {
	if count < 0 {
		return Error[int](errors.InvalidInput("count", "must not be negative"))
	}
	return &indexedPublisher[int]{
		count: count,
		at:    func(i int) int { return start + i },
	}
}

// Empty completes immediately without emitting.
func Empty[T any]() Publisher[T] {
	return &indexedPublisher[T]{count: 0}
}

// Error fails every subscriber with err, without waiting for demand.
func Error[T any](err error) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		s.OnSubscribe(noopSubscription{})
		s.OnError(err)
	})
}

type indexedPublisher[T any] struct {
	count int
	at    func(i int) T
}

func (p *indexedPublisher[T]) Subscribe(s Subscriber[T]) {
	sub := &indexedSubscription[T]{downstream: s, count: p.count, at: p.at}
	s.OnSubscribe(sub)
	if p.count == 0 && sub.done.CompareAndSwap(false, true) {
		s.OnComplete()
	}
}

// indexedSubscription is trampolined: the Request call that raises demand
// from zero owns the emission loop, and nested or concurrent requests only
// add to the counter it drains.
type indexedSubscription[T any] struct {
	downstream Subscriber[T]
	at         func(i int) T
	count      int
	index      int // owned by the emitting goroutine

	requested atomic.Int64
	invalid   atomic.Pointer[errors.AppError]
	done      atomic.Bool
}

func (s *indexedSubscription[T]) Request(n int64) {
	if n <= 0 {
		// The error is signalled by whichever goroutine owns the loop; the
		// unit of demand only serves to claim it when nobody does.
		s.invalid.CompareAndSwap(nil, errors.InvalidRequest(n))
		n = 1
	}
	if addCap(&s.requested, n) == 0 {
		s.drain()
	}
}

func (s *indexedSubscription[T]) Cancel() {
	s.done.Store(true)
}

func (s *indexedSubscription[T]) drain() {
	var emitted int64
	r := s.requested.Load()
	for {
		for emitted < r && s.index < s.count {
			if s.stopped() {
				return
			}
			v := s.at(s.index)
			s.index++
			s.downstream.OnNext(v)
			emitted++
		}
		if s.stopped() {
			return
		}
		if s.index == s.count {
			if s.done.CompareAndSwap(false, true) {
				s.downstream.OnComplete()
			}
			return
		}
		r = s.requested.Load()
		if r == emitted {
			r = s.requested.Add(-emitted)
			if r == 0 {
				return
			}
			emitted = 0
		}
	}
}

// stopped reports whether emission has ended, failing the subscription first
// if an invalid request is pending.
func (s *indexedSubscription[T]) stopped() bool {
	if err := s.invalid.Load(); err != nil {
		if s.done.CompareAndSwap(false, true) {
			s.downstream.OnError(err)
		}
		return true
	}
	return s.done.Load()
}
