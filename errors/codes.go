package errors

// ErrorCode is the machine-readable error kind carried by every AppError.
type ErrorCode string

// Provider adapter errors. Adapters only ever return these.
const (
	// ErrCodeAuth indicates the vendor rejected the credentials.
	ErrCodeAuth ErrorCode = "AUTH_ERROR"
	// ErrCodeQuotaExceeded indicates the vendor quota or rate limit is exhausted.
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
	// ErrCodeTimeout indicates the call did not finish before its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeUnavailable indicates the vendor could not be reached or failed server side.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	// ErrCodeMalformed indicates the audio or the vendor response could not be used.
	ErrCodeMalformed ErrorCode = "MALFORMED"
)

// Pipeline errors.
const (
	// ErrCodeAllProvidersUnavailable indicates every configured provider failed or was skipped.
	ErrCodeAllProvidersUnavailable ErrorCode = "ALL_PROVIDERS_UNAVAILABLE"
	// ErrCodeBelowThreshold indicates the best match did not reach the play threshold.
	ErrCodeBelowThreshold ErrorCode = "BELOW_THRESHOLD"
	// ErrCodeNoQuestionsIndexed indicates a query ran against an empty index.
	ErrCodeNoQuestionsIndexed ErrorCode = "NO_QUESTIONS_INDEXED"
	// ErrCodeDeliveryFailed indicates playback or generation failed after a decision was made.
	ErrCodeDeliveryFailed ErrorCode = "DELIVERY_FAILED"
)

// Request and resource errors.
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeQuotaExceeded:           true,
	ErrCodeTimeout:                 true,
	ErrCodeUnavailable:             true,
	ErrCodeAllProvidersUnavailable: true,
	ErrCodeDeliveryFailed:          true,
}

// adapterCodes is the closed set a provider adapter may report.
var adapterCodes = map[ErrorCode]bool{
	ErrCodeAuth:          true,
	ErrCodeQuotaExceeded: true,
	ErrCodeTimeout:       true,
	ErrCodeUnavailable:   true,
	ErrCodeMalformed:     true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsAdapterCode reports whether code belongs to the provider adapter error set.
func IsAdapterCode(code ErrorCode) bool {
	return adapterCodes[code]
}
