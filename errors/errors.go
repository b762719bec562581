package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"kind"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
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
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Provider adapter errors ---

// AuthError reports rejected vendor credentials.
func AuthError(provider string) *AppError {
	return &AppError{
		Code: ErrCodeAuth, Message: fmt.Sprintf("%s rejected the configured credentials.", provider),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"provider": provider},
	}
}

// QuotaExceeded reports an exhausted vendor quota or rate limit.
func QuotaExceeded(provider string) *AppError {
	return &AppError{
		Code: ErrCodeQuotaExceeded, Message: fmt.Sprintf("%s quota exceeded.", provider),
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"provider": provider},
	}
}

// Timeout creates a new AppError for an operation that ran past its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s did not complete in time.", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Unavailable reports a vendor that could not be reached or failed server side.
func Unavailable(provider string) *AppError {
	return &AppError{
		Code: ErrCodeUnavailable, Message: fmt.Sprintf("%s is unavailable.", provider),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"provider": provider},
	}
}

// Malformed reports audio or a vendor payload that cannot be used.
func Malformed(reason string) *AppError {
	return &AppError{
		Code: ErrCodeMalformed, Message: reason,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// UnsupportedEncoding reports an upload whose detected media type is not accepted.
func UnsupportedEncoding(mediaType string) *AppError {
	return &AppError{
		Code: ErrCodeMalformed, Message: fmt.Sprintf("Unsupported audio encoding: %s", mediaType),
		HTTPStatus: http.StatusUnsupportedMediaType, Retryable: false,
		Details: map[string]any{"media_type": mediaType},
	}
}

// --- Pipeline errors ---

// ProviderFailure is the per-provider entry of an AllProvidersUnavailable error.
type ProviderFailure struct {
	Kind    ErrorCode `json:"kind"`
	Message string    `json:"message"`
	Skipped bool      `json:"skipped"`
}

// AllProvidersUnavailable aggregates the failure of every configured provider.
func AllProvidersUnavailable(failures map[string]ProviderFailure) *AppError {
	return &AppError{
		Code: ErrCodeAllProvidersUnavailable, Message: "No transcription provider produced a result.",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"providers": failures},
	}
}

// BelowThreshold reports a best match that is not confident enough to play.
func BelowThreshold(score, threshold float64) *AppError {
	return &AppError{
		Code: ErrCodeBelowThreshold, Message: fmt.Sprintf("Best match %.3f is below threshold %.2f.", score, threshold),
		HTTPStatus: http.StatusOK, Retryable: false,
		Details: map[string]any{"score": score, "threshold": threshold},
	}
}

// NoQuestionsIndexed reports a match attempted before any question was indexed.
func NoQuestionsIndexed() *AppError {
	return &AppError{
		Code: ErrCodeNoQuestionsIndexed, Message: "No questions are indexed.",
		HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// DeliveryFailed reports playback or generation that failed after a decision was made.
func DeliveryFailed(reason string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDeliveryFailed, Message: reason,
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}

// --- Request and resource errors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// Conflict creates a new AppError for a conflict with the current state of the resource.
func Conflict(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConflict, Message: reason,
		HTTPStatus: http.StatusConflict, Retryable: false,
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
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// KindOf returns the code of err. Context deadlines map to TIMEOUT and
// unclassified errors to INTERNAL_ERROR. A nil error has no kind.
func KindOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	return ErrCodeInternal
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	return KindOf(err) == code
}
