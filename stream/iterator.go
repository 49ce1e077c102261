package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
)

const iteratorComponent = "stream.iterator"

// Iterator provides pull-based sequential access to values.
// Next returns (value, true, nil) for each item, (zero, false, nil) when
// exhausted, or (zero, false, err) on failure.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// IteratorFunc adapts a generator function to the Iterator interface.
// Close is a no-op.
type IteratorFunc[T any] func(ctx context.Context) (T, bool, error)

// Next calls f(ctx).
func (f IteratorFunc[T]) Next(ctx context.Context) (T, bool, error) { return f(ctx) }

// Close does nothing.
func (f IteratorFunc[T]) Close() error { return nil }

// SliceIterator iterates over a slice.
func SliceIterator[T any](items []T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (s *sliceIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if s.pos >= len(s.items) {
		return zero, false, nil
	}
	v := s.items[s.pos]
	s.pos++
	return v, true, nil
}

func (s *sliceIter[T]) Close() error { return nil }

// FromIterator emits the values of iter on a dedicated goroutine. The
// iterator is consumed by the first subscription and closed when that
// subscription ends.
func FromIterator[T any](iter Iterator[T]) Publisher[T] {
	return FromIteratorFunc(func(context.Context) Iterator[T] { return iter })
}

// FromIteratorFunc calls create once per subscription and emits the
// returned iterator on a dedicated goroutine. The context passed to create
// and to Next is cancelled when the subscription is cancelled.
func FromIteratorFunc[T any](create func(ctx context.Context) Iterator[T]) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) {
		ctx, cancel := context.WithCancel(context.Background())
		sub := &iteratorSubscription[T]{
			downstream: s,
			ctx:        ctx,
			cancel:     cancel,
			wake:       make(chan struct{}, 1),
		}
		sub.iter = create(ctx)
		s.OnSubscribe(sub)
		go sub.run()
	})
}

type iteratorSubscription[T any] struct {
	downstream Subscriber[T]
	iter       Iterator[T]
	ctx        context.Context
	cancel     context.CancelFunc

	requested atomic.Int64
	invalid   atomic.Pointer[errors.AppError]
	done      atomic.Bool
	wake      chan struct{}
	closeOnce sync.Once
}

func (s *iteratorSubscription[T]) Request(n int64) {
	if n <= 0 {
		// Reported from the emitting goroutine to keep signals serial.
		s.invalid.CompareAndSwap(nil, errors.InvalidRequest(n))
	} else {
		addCap(&s.requested, n)
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *iteratorSubscription[T]) Cancel() {
	if s.done.CompareAndSwap(false, true) {
		s.cancel()
	}
}

func (s *iteratorSubscription[T]) run() {
	defer s.close()
	for {
		if s.done.Load() {
			return
		}
		if err := s.invalid.Load(); err != nil {
			s.fail(err)
			return
		}
		if s.requested.Load() > 0 {
			v, ok, err := s.iter.Next(s.ctx)
			switch {
			case s.done.Load():
				return
			case err != nil:
				s.fail(err)
				return
			case !ok:
				if s.done.CompareAndSwap(false, true) {
					s.downstream.OnComplete()
				}
				return
			}
			s.downstream.OnNext(v)
			produced(&s.requested, 1)
			continue
		}
		select {
		case <-s.wake:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *iteratorSubscription[T]) fail(err error) {
	if s.done.CompareAndSwap(false, true) {
		s.downstream.OnError(err)
	}
}

func (s *iteratorSubscription[T]) close() {
	s.closeOnce.Do(func() {
		s.cancel()
		if err := s.iter.Close(); err != nil {
			if log := logger.Get(iteratorComponent); log.DebugEnabled() {
				log.Debug("iterator close failed", logger.ErrorFields("close", err))
			}
		}
	})
}
