// Package middleware holds the HTTP middleware chain of the dashboard
// server: request ids, structured request logs, rate limiting, CORS,
// security headers, body limits and per-route metrics.
//
// Recommended order:
//
//	RequestID, StructuredLogger, Recoverer, Metrics, CORS, SecurityHeaders, RateLimiter
package middleware
