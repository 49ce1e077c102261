package stream

import "math"

// Unbounded is the demand that lets a publisher emit without further requests.
const Unbounded int64 = math.MaxInt64

// Publisher is a provider of a potentially unbounded number of sequenced
// elements, published according to the demand received from its Subscriber.
// Subscribe may be called many times; each call starts an independent
// Subscription.
type Publisher[T any] interface {
	Subscribe(s Subscriber[T])
}

// Subscriber receives OnSubscribe exactly once, then zero or more OnNext
// calls followed by at most one OnError or OnComplete.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription)
	OnNext(v T)
	OnError(err error)
	OnComplete()
}

// Subscription is the one-to-one link between a Publisher and a Subscriber.
type Subscription interface {
	// Request grants n more units of demand. n must be positive.
	Request(n int64)
	// Cancel asks the publisher to stop emitting. Idempotent.
	Cancel()
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc[T any] func(s Subscriber[T])

// Subscribe calls f(s).
func (f PublisherFunc[T]) Subscribe(s Subscriber[T]) { f(s) }

// Predicate tests a single value. It must be safe to call from whichever
// goroutine the source emits on.
type Predicate[T any] interface {
	Test(v T) (bool, error)
}

// PredicateFunc adapts a fallible function to the Predicate interface.
type PredicateFunc[T any] func(v T) (bool, error)

// Test calls f(v).
func (f PredicateFunc[T]) Test(v T) (bool, error) { return f(v) }

// Match adapts an infallible function to the Predicate interface.
func Match[T any](fn func(v T) bool) Predicate[T] {
	if fn == nil {
		return nil
	}
	return PredicateFunc[T](func(v T) (bool, error) {
		return fn(v), nil
	})
}

// Signal names a protocol signal in hooks, logs and metrics.
type Signal string

const (
	SignalNext     Signal = "next"
	SignalError    Signal = "error"
	SignalComplete Signal = "complete"
)

type noopSubscription struct{}

func (noopSubscription) Request(int64) {}
func (noopSubscription) Cancel()       {}
