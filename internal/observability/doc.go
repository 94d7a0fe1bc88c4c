// Package observability provides structured logging and Prometheus metrics
// for the hospital API.
//
// Loggers are zap based; every request log carries the chi request ID.
// Metrics cover notification delivery (per provider attempt and per dispatch
// outcome), webhook forwarding and HTTP traffic.
package observability
