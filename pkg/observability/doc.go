// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing setup, and health check endpoints for the directory
// service.
//
// # Logging
//
// Logger wraps stdlib slog with a JSON handler and field-chaining helpers:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("org_id", orgID).Info("search executed")
//
// Request-scoped values (request ID, user ID) travel on the context and are
// attached via FromContext.
//
// # Metrics
//
// NewMetrics registers all Prometheus collectors on a caller-supplied registry
// so tests can use an isolated registry per test. The /metrics endpoint is
// served on the health port, not the API port.
//
// # Health
//
// HealthChecker exposes Liveness (always 200 while the process runs) and
// Readiness (probes the database and, when configured, Redis).
package observability
