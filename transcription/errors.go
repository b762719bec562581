package transcription

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/httpclient"
)

// Classify maps any error from a vendor call into the adapter error set.
// Errors that already carry an adapter kind are returned unchanged.
func Classify(providerName string, err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok && apperrors.IsAdapterCode(appErr.Code) {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Timeout(providerName).WithCause(err)
	}

	if he, ok := httpclient.AsError(err); ok {
		var out *apperrors.AppError
		switch he.Code {
		case httpclient.ErrCodeTimeout:
			out = apperrors.Timeout(providerName)
		case httpclient.ErrCodeAuth:
			out = apperrors.AuthError(providerName)
		case httpclient.ErrCodeRateLimit:
			out = apperrors.QuotaExceeded(providerName)
		case httpclient.ErrCodeValidation, httpclient.ErrCodeDecode:
			out = apperrors.Malformed(providerName + " rejected the request or returned an unreadable response")
		default:
			out = apperrors.Unavailable(providerName)
		}
		if he.StatusCode > 0 {
			out.WithDetail("status", he.StatusCode)
		}
		return out.WithDetail("provider", providerName).WithCause(err)
	}

	return apperrors.Unavailable(providerName).WithCause(err)
}

// MalformedResponse reports a 2xx vendor response missing the expected fields.
func MalformedResponse(providerName, reason string) *apperrors.AppError {
	return apperrors.Malformed(providerName + ": " + reason).WithDetail("provider", providerName)
}

// MissingCredentials reports a cloud backend configured without an API key.
func MissingCredentials(providerName string) *apperrors.AppError {
	return apperrors.AuthError(providerName).WithDetail("reason", "no api key configured")
}
