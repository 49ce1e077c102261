// Package stream implements demand-driven, push-based publishers and the
// short-circuit Any operator on top of them.
//
// The signaling protocol mirrors Reactive Streams: a Publisher hands each
// Subscriber a Subscription through OnSubscribe, the subscriber grants demand
// with Request(n), and the publisher answers with at most n OnNext calls
// followed by exactly one OnError or OnComplete. Cancel is idempotent.
//
// # Any
//
// NewAny reduces a Publisher[T] to a single-value Publisher[bool] that
// emits true as soon as one element satisfies the predicate, or false when
// the source completes without a match:
//
//	src := stream.Range(1, 10)
//	anyBig, err := stream.NewAny[int](src, stream.Match(func(n int) bool { return n > 5 }))
//	if err != nil {
//	    return err
//	}
//	found, err := stream.Await(ctx, anyBig)
//
// The operator requests unbounded demand from its source, cancels the source
// on the first match or predicate failure, and holds the result until the
// downstream requests it. All coordination is lock-free.
//
// # Sources
//
//   - FromSlice, Range, Empty, Error: synchronous, emit on the requesting goroutine
//   - FromIterator, FromIteratorFunc: asynchronous, pull an Iterator on their own goroutine
//
// # Consumers
//
//   - Await: block for the first value of a publisher
//   - Collect: block for all values of a publisher
package stream
