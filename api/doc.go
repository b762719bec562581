// Package api exposes the speech-to-text, session and question bank
// operations over HTTP. Handlers are registered on a gin router; errors are
// written with server.RespondWithError so every failure uses the standard
// error envelope.
package api
