// Package server provides the HTTP server for standin: a gin engine mounted
// on a ServeMux and served through h2c, wrapped in the net/http middleware
// chain from server/middleware.
//
// # Middleware
//
//   - Recovery: panic recovery with the standard error envelope
//   - RequestID: X-Request-Id generation and propagation
//   - CORS: cross-origin headers and preflight
//   - BodySizeLimit: request body limits for audio uploads
//   - RequestLogger: structured access log
//   - Metrics and RateLimit: gin middleware applied per route group
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /alive, /ready: liveness and readiness probes
//   - /version: build information
package server
