package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Precondition errors, raised synchronously by constructors.
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required argument or field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Stream protocol errors, delivered as terminal signals.
const (
	// ErrCodePredicatePanic indicates a predicate panicked while testing an item.
	ErrCodePredicatePanic ErrorCode = "PREDICATE_PANIC"
	// ErrCodeInvalidRequest indicates a non-positive demand was requested.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeEmptyStream indicates a single-value stream completed without a value.
	ErrCodeEmptyStream ErrorCode = "EMPTY_STREAM"
	// ErrCodeProtocolViolation indicates a publisher or subscriber broke the signaling contract.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
)

// Infrastructure errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeTimeout indicates the operation did not finish in time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeServiceUnavailable indicates a telemetry or config backend is unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Stream operators never retry; only infrastructure errors are flagged
// retryable so callers outside a stream can decide for themselves.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:            true,
	ErrCodeServiceUnavailable: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
