// Package errors provides the structured error type shared by streamkit
// packages.
//
// Every error a stream operator originates itself (precondition failures,
// recovered predicate panics, invalid demand) is an *AppError carrying a
// machine-readable ErrorCode. Errors coming from a source or returned by a
// predicate are never wrapped: they reach the downstream subscriber as-is.
//
// # Usage
//
//	if src == nil {
//	    return nil, errors.MissingField("source")
//	}
//
//	if errors.HasCode(err, errors.ErrCodePredicatePanic) {
//	    ...
//	}
package errors
