// Package infrastructure provides the cross-cutting runtime services of the
// dashboard: structured JSON logging with request trace ids, and
// OpenTelemetry tracing and metrics exported through Prometheus.
package infrastructure
