// Package middleware provides the gin middleware chain of the HTTP server:
// request IDs, access logging, panic recovery, CORS, request deadlines,
// Prometheus metrics, OpenTelemetry spans and request body limits.
package middleware
