package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified streamkit error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Precondition constructors ---

// MissingField creates a new AppError for a missing required argument or field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// --- Stream constructors ---

// PredicatePanic creates a new AppError for a predicate that panicked.
// A recovered error value becomes the Cause.
func PredicatePanic(recovered any) *AppError {
	e := &AppError{
		Code:    ErrCodePredicatePanic,
		Message: fmt.Sprintf("predicate panicked: %v", recovered),
		Details: map[string]any{"panic": fmt.Sprint(recovered)},
	}
	if err, ok := recovered.(error); ok {
		e.Cause = err
	}
	return e
}

// InvalidRequest creates a new AppError for a non-positive demand request.
func InvalidRequest(n int64) *AppError {
	return &AppError{
		Code: ErrCodeInvalidRequest, Message: fmt.Sprintf("request amount must be positive (got: %d)", n),
		Details: map[string]any{"n": n},
	}
}

// EmptyStream creates a new AppError for a stream that completed without a value.
func EmptyStream() *AppError {
	return &AppError{Code: ErrCodeEmptyStream, Message: "stream completed without emitting a value"}
}

// ProtocolViolation creates a new AppError describing a broken signaling rule.
func ProtocolViolation(rule string) *AppError {
	return &AppError{
		Code: ErrCodeProtocolViolation, Message: rule,
		Details: map[string]any{"rule": rule},
	}
}

// Internal creates a new AppError for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}

// Timeout creates a new AppError for an operation that did not finish in time.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s did not finish in time", operation),
		Retryable: true, Details: map[string]any{"operation": operation},
	}
}

// --- Inspection ---

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts any error into an AppError. AppErrors anywhere in the chain
// are returned as-is; other errors become ErrCodeInternal with err as cause.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
