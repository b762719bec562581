// Package errors provides the error taxonomy shared by the transcription,
// matching and delivery stages. Every error that crosses a package boundary is
// an *AppError carrying a machine-readable code, an HTTP status and a
// retryable flag, and renders to the JSON error envelope used by the API.
package errors
